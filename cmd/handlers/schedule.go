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
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"autoblog/internal/config"
	"autoblog/internal/logger"
)

// NewScheduleCmd creates the schedule command for continuous posting
func NewScheduleCmd() *cobra.Command {
	var postsPerDay int

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Keep publishing posts on a daily schedule",
		Long: `Run the posting schedule until interrupted.

One post a day runs at 09:00, two at 09:00 and 17:00. Larger counts are
spread over the day with a random delay. Runs closer together than
automation.min_hours_between_posts are skipped.

Examples:
  autoblog schedule
  autoblog schedule --posts-per-day 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := appCfg.Automation
			if postsPerDay > 0 {
				settings.PostsPerDay = postsPerDay
			}
			if problems := config.ValidateAutomation(settings); len(problems) > 0 {
				return fmt.Errorf("invalid schedule settings: %s", strings.Join(problems, "; "))
			}

			a, err := buildApp(cmd.Context(), appCfg, settings)
			if err != nil {
				return err
			}
			return runSchedule(cmd.Context(), a)
		},
	}

	cmd.Flags().IntVar(&postsPerDay, "posts-per-day", 0, "Posts per day (default from config: 1)")

	return cmd
}

// runSchedule starts the scheduler and blocks until a signal arrives.
func runSchedule(ctx context.Context, a *app) error {
	if err := a.service.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	st := a.service.Status(1)
	logger.Info("Scheduler running", "slots", strings.Join(st.Slots, ", "), "posts_per_day", st.PostsPerDay)
	logger.Info("Press Ctrl+C to stop")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info("Scheduler shutdown initiated", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.service.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("scheduler did not stop cleanly: %w", err)
	}
	logger.Info("Scheduler stopped")
	return nil
}
