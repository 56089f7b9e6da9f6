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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"autoblog/internal/config"
	"autoblog/internal/core"
)

// NewRunCmd creates the run command for a single pipeline pass
func NewRunCmd() *cobra.Command {
	var (
		runOnce  bool
		sources  []string
		category string
		topic    string
		minSEO   int
		social   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate and publish one post now",
		Long: `Run the full pipeline once: pick a trending topic, write the post,
check SEO, add an image and monetization, publish and share.

The run log entry is printed as JSON. The command exits non-zero when the
run fails before publishing.

Examples:
  # Use the configured sources
  autoblog run --run-once

  # Only Google Trends, technology posts, stricter SEO
  autoblog run --sources google --category technology --min-seo 80

  # Write about a specific topic
  autoblog run --topic "Quantum networking" --social=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := appCfg.Automation
			if len(sources) > 0 {
				settings.Sources = sources
			}
			if category != "" {
				settings.Categories = []string{category}
			}
			if cmd.Flags().Changed("min-seo") {
				settings.MinSEOScore = minSEO
			}
			if cmd.Flags().Changed("social") {
				settings.ShareOnSocial = social
			}
			if problems := config.ValidateAutomation(settings); len(problems) > 0 {
				return fmt.Errorf("invalid run settings: %s", strings.Join(problems, "; "))
			}

			a, err := buildApp(cmd.Context(), appCfg, settings)
			if err != nil {
				return err
			}
			if !runOnce {
				return runSchedule(cmd.Context(), a)
			}

			var specific *core.Topic
			if topic != "" {
				specific = &core.Topic{Source: "manual", Text: topic, Category: category}
			}
			entry, err := a.service.RunNow(cmd.Context(), specific)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(entry); err != nil {
				return fmt.Errorf("failed to print run: %w", err)
			}
			if entry.Status == core.RunFailed {
				return fmt.Errorf("run failed: %s", entry.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runOnce, "run-once", true, "Run a single pass and exit; false keeps posting on the schedule")
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "Trending sources to use (news, google, rss)")
	cmd.Flags().StringVar(&category, "category", "", "News category to draw topics from")
	cmd.Flags().StringVar(&topic, "topic", "", "Write about this topic instead of a trending one")
	cmd.Flags().IntVar(&minSEO, "min-seo", 0, "Minimum SEO score before regenerating")
	cmd.Flags().BoolVar(&social, "social", true, "Share the post on configured social webhooks")

	return cmd
}
