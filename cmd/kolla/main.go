package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/fork-tongue/kolla"
	"github.com/fork-tongue/kolla/component"
	"github.com/fork-tongue/kolla/fragment"
	"github.com/fork-tongue/kolla/hotreload"
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

var version = "0.0.0-dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kolla",
		Short:        "reactive component trees for pluggable renderer backends",
		SilenceUsage: true,
	}
	cmd.AddCommand(versionCmd(), demoCmd(), watchCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// demoApp is a small component rendering a keyed list of labeled items.
type demoApp struct {
	component.Base
}

func newDemoApp(props *reactive.Map, parent fragment.Component) fragment.Component {
	c := &demoApp{}
	c.Init(props, parent)
	c.State().Set("items", []any{
		map[string]any{"id": "a", "label": "alpha"},
		map[string]any{"id": "b", "label": "beta"},
		map[string]any{"id": "c", "label": "gamma"},
	})
	return c
}

func (c *demoApp) Render(rend renderer.Renderer) *fragment.Fragment {
	root := fragment.New(rend, "container", nil)
	root.SetBind("title", func() any { return c.Props().GetString("title") })

	list := fragment.NewList(rend, root)
	list.SetExpression(func() []any {
		items, _ := c.State().Get("items").([]any)
		return items
	})
	list.SetKey(func(item any) any {
		return item.(map[string]any)["id"]
	})
	list.SetCreateFragment(func(ctx *reactive.Map) *fragment.Fragment {
		item := fragment.New(rend, "item", nil)
		item.SetBind("label", func() any {
			m, _ := ctx.Get("item").(map[string]any)
			return m["label"]
		})
		return item
	})
	return root
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "render the demo tree and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := kolla.New(renderer.DictRenderer{}, kolla.WithLogger(stderrLogger()))
			if err != nil {
				return err
			}
			target := &renderer.DictNode{Type: "root"}
			if err := app.Render(newDemoApp, target, map[string]any{"title": "kolla demo"}); err != nil {
				return err
			}
			out, err := json.MarshalIndent(target, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	var debounceMs int
	cmd := &cobra.Command{
		Use:   "watch [dirs...]",
		Short: "re-render the demo tree whenever watched files change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			render := func() error {
				app, err := kolla.New(renderer.DictRenderer{})
				if err != nil {
					return err
				}
				target := &renderer.DictNode{Type: "root"}
				if err := app.Render(newDemoApp, target, nil); err != nil {
					return err
				}
				out, err := json.Marshal(target)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := render(); err != nil {
				return err
			}
			watcher, err := hotreload.New(args, func(paths []string) {
				fmt.Fprintf(cmd.ErrOrStderr(), "changed: %v\n", paths)
				if err := render(); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}, hotreload.WithLogger(stderrLogger()),
				hotreload.WithDebounce(time.Duration(debounceMs)*time.Millisecond))
			if err != nil {
				return err
			}
			defer watcher.Close()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
	cmd.Flags().IntVar(&debounceMs, "debounce", 100, "debounce interval in milliseconds")
	return cmd
}

func stderrLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{})
}
