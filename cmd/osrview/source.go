package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/osr"
	"github.com/gogpu/osr/engine/cdp"
)

func newSourceCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "source [url]",
		Short: "Print the page source once loaded",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := a.cfg.Browser.HomePage
			if len(args) == 1 {
				url = args[0]
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			src, err := pageSource(ctx, a, url)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), src)
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	return cmd
}

func pageSource(ctx context.Context, a *app, url string) (string, error) {
	eng, err := cdp.New(ctx, engineOptions(a.cfg)...)
	if err != nil {
		return "", err
	}
	defer eng.Close()

	sess, err := osr.NewSession(eng, url,
		osr.WithSize(a.cfg.Browser.Width, a.cfg.Browser.Height),
		osr.WithScaleFactor(a.cfg.Browser.ScaleFactor),
	)
	if err != nil {
		return "", err
	}
	defer sess.Close()
	if err := sess.CreateImmediately(ctx); err != nil {
		return "", err
	}

	if err := waitLoaded(ctx, sess, make(chan struct{}), ""); err != nil {
		return "", err
	}

	out := make(chan string, 1)
	if err := sess.VisitSource(func(src string) { out <- src }); err != nil {
		return "", err
	}
	select {
	case src := <-out:
		return src, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
