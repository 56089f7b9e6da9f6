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
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"

	"autoblog/internal/affiliate"
	"autoblog/internal/analytics"
	"autoblog/internal/automation"
	"autoblog/internal/clients"
	"autoblog/internal/config"
	"autoblog/internal/core"
	"autoblog/internal/llm"
	"autoblog/internal/logger"
	"autoblog/internal/messaging"
	"autoblog/internal/publisher"
	"autoblog/internal/seo"
	"autoblog/internal/server"
	"autoblog/internal/trends"
	"autoblog/internal/visual"
)

// app holds every component built from configuration
type app struct {
	cfg       *config.Config
	registry  *prometheus.Registry
	service   *automation.Service
	runLog    *automation.FileRunLog
	seo       *seo.Analyzer
	topics    *trends.Aggregator
	images    automation.ImageProvider
	publisher automation.Publisher
	sharer    automation.SocialSharer
	catalog   affiliate.Catalog
	monetizer *automation.ContentMonetizer
	analytics *analytics.Reporter
}

// buildApp wires the pipeline. Only the content generator is mandatory;
// missing optional collaborators are logged and skipped.
func buildApp(ctx context.Context, cfg *config.Config, settings config.Automation) (*app, error) {
	log := logger.With("setup")
	seed := rand.New(rand.NewSource(time.Now().UnixNano()))
	httpClient := clients.NewHTTP(nil, clients.DefaultRetryConfig())

	generator, err := llm.NewGenerator(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("content generation is not configured: %w", err)
	}
	log.Info("Content generator ready", "provider", generator.Name())

	a := &app{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		runLog:   automation.NewFileRunLog(cfg.Automation.LogFile, cfg.Automation.MaxLogEntries),
		seo:      seo.NewAnalyzer(),
		topics:   buildTopics(cfg.News, httpClient, childRand(seed)),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.images = buildImages(cfg, httpClient, generator, childRand(seed))
	a.publisher = buildPublisher(ctx, cfg.Blogger)
	a.sharer = buildSharer(cfg.Social, httpClient)
	a.catalog = buildCatalog(ctx, cfg.Affiliate)
	a.monetizer = &automation.ContentMonetizer{
		Network:     cfg.Ads.Network,
		Density:     core.Density(cfg.Ads.Density),
		Catalog:     a.catalog,
		Ranker:      affiliate.NewRanker(childRand(seed)),
		MaxProducts: cfg.Affiliate.MaxProducts,
	}

	a.analytics = &analytics.Reporter{
		Client: buildAnalytics(ctx, cfg.Analytics),
		Log:    a.runLog,
		Days:   cfg.Analytics.Days,
	}

	deps := automation.Dependencies{
		Topics:    a.topics,
		Prompts:   trends.PromptBuilder{},
		Generator: generator,
		SEO:       a.seo,
		Images:    a.images,
		Monetizer: a.monetizer,
		Publisher: a.publisher,
		Sharer:    a.sharer,
		Cleaner:   visual.Cleaner{Dir: cfg.Images.OutputDir},
		Log:       a.runLog,
		Metrics:   automation.NewMetrics(a.registry),
	}
	a.service = automation.NewService(automation.NewOrchestrator(deps, settings))
	return a, nil
}

// childRand derives an independent source from parent. A *rand.Rand is not
// safe for concurrent use, so every component gets its own.
func childRand(parent *rand.Rand) *rand.Rand {
	return rand.New(rand.NewSource(parent.Int63()))
}

func buildTopics(cfg config.News, httpClient *clients.HTTP, rng *rand.Rand) *trends.Aggregator {
	var news *trends.NewsAPISource
	if cfg.APIKey != "" {
		news = trends.NewNewsAPISource(trends.NewsAPIConfig{
			APIKey:   cfg.APIKey,
			Country:  cfg.Country,
			PageSize: cfg.PageSize,
			FreshTTL: cfg.FreshTTL,
			StaleTTL: cfg.StaleTTL,
		}, httpClient, trends.NewFileCache(cfg.CacheDir))
	} else {
		logger.Warn("NEWS_API_KEY not set, the news source is disabled")
	}

	topics := trends.NewAggregator(news, trends.NewRSSSource(&http.Client{Timeout: 30 * time.Second}), rng)
	topics.FeedURLs = cfg.RSSFeeds
	topics.TrendsGeo = cfg.TrendsGeo
	topics.FilterPeople = cfg.FilterPeople
	return topics
}

func buildImages(cfg *config.Config, httpClient *clients.HTTP, generator llm.Generator, rng *rand.Rand) automation.ImageProvider {
	switch cfg.Images.Provider {
	case "dalle":
		if cfg.AI.OpenAI.APIKey == "" {
			logger.Warn("OPENAI_API_KEY not set, posts will have no header image")
			return nil
		}
		return visual.NewDALLEProvider(visual.DALLEOptions{
			APIKey:    cfg.AI.OpenAI.APIKey,
			BaseURL:   cfg.AI.OpenAI.BaseURL,
			Model:     cfg.AI.OpenAI.ImageModel,
			OutputDir: cfg.Images.OutputDir,
		}, nil)
	default:
		if cfg.Images.UnsplashKey == "" {
			logger.Warn("UNSPLASH_API_KEY not set, posts will have no header image")
			return nil
		}
		return visual.NewUnsplashProvider(visual.UnsplashOptions{
			AccessKey: cfg.Images.UnsplashKey,
			OutputDir: cfg.Images.OutputDir,
			Keywords:  visual.GeneratorKeywords(generator),
		}, httpClient, rng)
	}
}

func buildPublisher(ctx context.Context, cfg config.Blogger) automation.Publisher {
	p, err := publisher.NewBloggerPublisher(ctx, publisher.Credentials{
		BlogID:       cfg.BlogID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, publisher.ErrMissingCredentials) {
			logger.Warn("Blogger credentials incomplete, runs will stop before publishing")
		} else {
			logger.Error("Failed to create Blogger client", err)
		}
		return disabledPublisher{err: err}
	}
	return p
}

// disabledPublisher fails every publish with the setup error
type disabledPublisher struct {
	err error
}

func (d disabledPublisher) Publish(ctx context.Context, title, content, imagePath string, labels []string) (core.PublishResult, error) {
	return core.PublishResult{}, &core.PublishError{Platform: "blogger", Err: d.err}
}

func buildSharer(cfg config.Social, httpClient *clients.HTTP) automation.SocialSharer {
	if !cfg.Enabled {
		return nil
	}

	slack, discord := cfg.SlackWebhook, cfg.DiscordWebhook
	if slack != "" {
		if err := messaging.ValidateWebhookURL(messaging.PlatformSlack, slack); err != nil {
			logger.Warn("Ignoring Slack webhook", "error", err.Error())
			slack = ""
		}
	}
	if discord != "" {
		if err := messaging.ValidateWebhookURL(messaging.PlatformDiscord, discord); err != nil {
			logger.Warn("Ignoring Discord webhook", "error", err.Error())
			discord = ""
		}
	}
	if slack == "" && discord == "" {
		logger.Warn("Social sharing enabled but no valid webhook configured")
		return nil
	}
	return messaging.NewWebhookSharer(slack, discord, cfg.Username, httpClient)
}

func buildCatalog(ctx context.Context, cfg config.Affiliate) affiliate.Catalog {
	if cfg.SpreadsheetID == "" {
		logger.Info("No affiliate spreadsheet configured, posts get ads only")
		return nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	sheetsCatalog, err := affiliate.NewSheetsCatalog(ctx, cfg.SpreadsheetID, cfg.Worksheet, opts...)
	if err != nil {
		logger.Error("Failed to create affiliate catalog", err)
		return nil
	}
	return affiliate.NewCachedCatalog(sheetsCatalog, cfg.CacheFile, cfg.CacheTTL)
}

func buildAnalytics(ctx context.Context, cfg config.Analytics) *analytics.Client {
	if cfg.PropertyID == "" {
		logger.Info("No analytics property configured, traffic reports are empty")
		return nil
	}

	var opts []option.ClientOption
	switch {
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		creds, err := analytics.ServiceAccountJSON(cfg.ClientEmail, cfg.PrivateKey, cfg.ProjectID)
		if err != nil {
			logger.Error("Invalid analytics service account", err)
			return nil
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := analytics.NewClient(ctx, cfg.PropertyID, opts...)
	if err != nil {
		logger.Error("Failed to create analytics client", err)
		return nil
	}
	return client
}

// newServer exposes the app over HTTP
func (a *app) newServer(cfg config.Server) *server.Server {
	return server.New(cfg, server.Dependencies{
		Service:   a.service,
		SEO:       a.seo,
		Images:    a.images,
		Publisher: a.publisher,
		Sharer:    a.sharer,
		Topics:    a.topics,
		Catalog:   a.catalog,
		Monetizer: a.monetizer,
		Analytics: a.analytics,
		Registry:  a.registry,
	})
}
