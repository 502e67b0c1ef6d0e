// Command sparkleq runs scripts against a page with a jQuery-like $ and
// serves the results through a 9P ctl file.
package main

import (
	"os"
	"os/user"
	"time"

	"github.com/knusbaum/go9p/fs"
	"github.com/pkg/errors"
	"github.com/psilva261/sparkleq"
	"github.com/psilva261/sparkleq/config"
	"github.com/psilva261/sparkleq/dom"
	"github.com/psilva261/sparkleq/layout/chrome"
	"github.com/psilva261/sparkleq/logger"
	"github.com/psilva261/sparkleq/runner"
	"github.com/spf13/cobra"
)

var flags struct {
	config   string
	verbose  bool
	service  string
	mtpt     string
	htmlfile string
	layout   string
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sparkleq [-v] [-c config] [-s service] [-m mtpt] [-h htmlfile jsfile1 [jsfile2] [..]]",
		Short:        "Run scripts with a jQuery-like $ and serve the result over 9P",
		SilenceUsage: true,
		RunE:         run,
	}
	f := cmd.Flags()
	// -h is the html file
	f.Bool("help", false, "help for sparkleq")
	f.StringVarP(&flags.config, "config", "c", "sparkleq.yaml", "config file")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "debug output")
	f.StringVarP(&flags.service, "service", "s", "", "9P service name")
	f.StringVarP(&flags.mtpt, "mtpt", "m", "", "mount point (plan9)")
	f.StringVarP(&flags.htmlfile, "html", "h", "", "html file")
	f.StringVarP(&flags.layout, "layout", "l", "", "layout: static, opossum or chrome")
	return cmd
}

func loadConfig(cmd *cobra.Command) (cfg *config.Config, err error) {
	if cfg, err = config.Load(flags.config); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("service") {
		cfg.Service = flags.service
	}
	if cmd.Flags().Changed("mtpt") {
		cfg.Mountpoint = flags.mtpt
	}
	if cmd.Flags().Changed("layout") {
		cfg.Layout.Kind = flags.layout
	}
	if flags.verbose {
		cfg.Debug = true
	}
	if err = cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return
}

func run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Debug = cfg.Debug

	s := &server{
		js: make([]string, 0, len(args)),
		opts: []runner.Option{
			runner.WithTimeout(cfg.GetTimeout()),
			runner.WithScroll(cfg.Layout.ScrollX, cfg.Layout.ScrollY),
		},
	}
	if flags.htmlfile != "" {
		b, err := os.ReadFile(flags.htmlfile)
		if err != nil {
			return errors.Wrap(err, "read html")
		}
		s.htm = string(b)
	}
	for _, fn := range args {
		b, err := os.ReadFile(fn)
		if err != nil {
			return errors.Wrap(err, "read js")
		}
		s.js = append(s.js, string(b))
	}

	if err := Init(cfg, s); err != nil {
		return errors.Wrap(err, "init")
	}
	s.layout = func(htm string) (dom.Layout, func(), error) {
		return newLayout(cfg, htm)
	}
	if err := Main(cfg, s); err != nil {
		return errors.Wrap(err, "main")
	}
	select {}
}

func newLayout(cfg *config.Config, htm string) (dom.Layout, func(), error) {
	nop := func() {}
	switch cfg.Layout.Kind {
	case config.LayoutOpossum:
		return &opossum{open: open}, nop, nil
	case config.LayoutChrome:
		l, err := chrome.New(chrome.Config{
			RemoteURL: cfg.Layout.Chrome.RemoteURL,
			Headless:  cfg.Layout.Chrome.Headless,
			Timeout:   cfg.GetTimeout(),
		}, htm)
		if err != nil {
			return nil, nil, err
		}
		return l, func() {
			if err := l.Close(); err != nil {
				log.Errorf("close chrome: %v", err)
			}
		}, nil
	default:
		return &dom.StaticLayout{}, nop, nil
	}
}

// Main posts the file system with the ctl file.
func Main(cfg *config.Config, s *server) (err error) {
	u, err := user.Current()
	if err != nil {
		return errors.Wrap(err, "get user")
	}
	un := u.Username
	gn, err := sparkleq.Group(u)
	if err != nil {
		return err
	}

	ctlfs, root := fs.NewFS(un, gn, 0500)
	c := fs.NewListenFile(ctlfs.NewStat("ctl", un, gn, 0600))
	root.AddChild(c)
	go assertParent()
	go s.Serve((*fs.ListenFileListener)(c))
	log.Printf("post fs %v", cfg.Service)
	return post(cfg, ctlfs.Server())
}

// assertParent exits once the browser is gone.
func assertParent() {
	for {
		<-time.After(time.Second)
		if !stat() {
			log.Printf("parent gone")
			os.Exit(1)
		}
	}
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}
