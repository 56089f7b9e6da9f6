/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autoblog/internal/config"
	"autoblog/internal/logger"
)

var (
	cfgFile string
	appCfg  *config.Config
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autoblog",
		Short: "AutoBlog writes, monetizes and publishes blog posts about trending topics.",
		Long: `AutoBlog picks a trending topic, writes a post about it with an LLM,
checks it for SEO, adds a header image, ads and affiliate products,
publishes it to Blogger and announces it on Slack or Discord.

Run a single pass with 'autoblog run', keep posting on a daily schedule
with 'autoblog schedule', or expose everything over HTTP with 'autoblog serve'.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			appCfg = cfg
			logger.SetLevel(cfg.App.LogLevel)
			if cfg.App.ConfigFile != "" {
				fmt.Fprintf(os.Stderr, "Using config file: %s\n", cfg.App.ConfigFile)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.autoblog.yaml or $HOME/.autoblog.yaml)")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewScheduleCmd())
	rootCmd.AddCommand(NewStatusCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
