package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-writeups"
	"github.com/goliatone/go-writeups/cmd/writeups/internal/bootstrap"
	"github.com/goliatone/go-writeups/internal/runtimeconfig"
)

// viperKeyAnnotation marks a flag whose value overrides a config key when
// set on the command line.
const viperKeyAnnotation = "writeups_config_key"

// moduleBuilder is swapped in tests.
var moduleBuilder = bootstrap.BuildModule

// app carries the module built by the root PersistentPreRunE.
type app struct {
	configFile string
	envFiles   []string
	module     *writeups.Module
	config     runtimeconfig.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "writeups",
		Short: "Serve and inspect CTF writeups",
		Long: `writeups scans a content tree of CTF writeups (one markdown file per
folder, plus images) and serves it as a cached JSON API.`,
		Example: `writeups serve --addr :8080 --watch
writeups list --tag pwn --q heap
writeups show ctf2024/heap-overflow
writeups render ./draft/main.md --toc`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default is ./writeups.yaml)")
	pf.StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load (default is ./.env when present)")
	pf.String("content-dir", "", "content root")
	pf.String("log-level", "", "log level (trace, debug, info, warn, error)")
	bindConfigKey(pf, "content-dir", "content_dir")
	bindConfigKey(pf, "log-level", "logging.level")

	root.AddCommand(
		newServeCommand(a),
		newListCommand(a),
		newShowCommand(a),
		newRenderCommand(a),
	)
	return root
}

func bindConfigKey(flags *pflag.FlagSet, name, key string) {
	_ = flags.SetAnnotation(name, viperKeyAnnotation, []string{key})
}

func (a *app) init(cmd *cobra.Command) error {
	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if keys := f.Annotations[viperKeyAnnotation]; len(keys) == 1 {
			overrides[keys[0]] = f.Value.String()
		}
	})

	module, cfg, err := moduleBuilder(bootstrap.Options{
		ConfigFile: a.configFile,
		EnvFiles:   a.envFiles,
		Overrides:  overrides,
	})
	if err != nil {
		return err
	}
	a.module = module
	a.config = cfg
	return nil
}
