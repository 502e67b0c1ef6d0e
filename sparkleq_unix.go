//go:build !plan9

package sparkleq

import (
	"os/user"

	"github.com/pkg/errors"
)

// Group returns the name of the primary group of u.
func Group(u *user.User) (string, error) {
	g, err := user.LookupGroupId(u.Gid)
	if err != nil {
		return "", errors.Wrap(err, "get group")
	}
	return g.Name, nil
}
