// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Joyanne05/fixit-my/fixitapi"
	"github.com/Joyanne05/fixit-my/internal/auth"
	"github.com/Joyanne05/fixit-my/offline"
)

var (
	flagDB      string
	flagAPI     string
	flagToken   string
	flagVerbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fixitmy",
		Short:         "FixItMY offline-capable report submission client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultDB := "fixitmy-queue.db"
	if home, err := os.UserHomeDir(); err == nil {
		defaultDB = filepath.Join(home, ".fixitmy", "queue.db")
	}

	root.PersistentFlags().StringVar(&flagDB, "db", defaultDB, "path to the local queue database")
	root.PersistentFlags().StringVar(&flagAPI, "api", envOr("FIXITMY_API", "http://localhost:8080"), "report API base URL")
	root.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("FIXITMY_TOKEN"), "session bearer token")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newSubmitCmd(), newQueueCmd(), newSyncCmd(), newStatusCmd(), newRunCmd())
	return root
}

// client bundles everything a command needs, built once per invocation.
type client struct {
	engine  *offline.Engine
	monitor *offline.Monitor
	prober  *offline.Prober
	store   *offline.Store
}

func newClient() (*client, func(), error) {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(filepath.Dir(flagDB), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create queue directory: %w", err)
	}
	store, err := offline.OpenStore(flagDB, logger)
	if err != nil {
		return nil, nil, err
	}

	session := auth.NewSession()
	if flagToken != "" {
		if err := session.SetToken(flagToken); err != nil {
			store.Close()
			return nil, nil, err
		}
	}

	api := fixitapi.NewClient(flagAPI, logger)
	monitor := offline.NewMonitor(logger)
	prober := offline.NewProber(api.HealthURL(), monitor, logger)
	engine := offline.NewEngine(store, api, monitor, session.Token, logger)

	cleanup := func() {
		engine.Close()
		store.Close()
	}
	return &client{engine: engine, monitor: monitor, prober: prober, store: store}, cleanup, nil
}

// probe establishes connectivity state before a one-shot command decides
// between direct submission and the queue.
func (c *client) probe(ctx context.Context) {
	c.monitor.SetState(c.prober.ProbeOnce(ctx))
}

func newSubmitCmd() *cobra.Command {
	var photoPath string
	var anonymous bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a report, queueing it locally when offline",
		Long: fmt.Sprintf(`Submit a report, queueing it locally when offline.

Categories: %s`, strings.Join(fixitapi.Categories, ", ")),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			category, _ := cmd.Flags().GetString("category")
			description, _ := cmd.Flags().GetString("description")
			location, _ := cmd.Flags().GetString("location")

			sub := offline.Submission{
				Title:       title,
				Category:    category,
				Description: description,
				Location:    location,
				Anonymous:   anonymous,
			}
			if photoPath != "" {
				photo, err := loadPhoto(photoPath)
				if err != nil {
					return err
				}
				sub.Photo = photo
			}

			c, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			c.probe(ctx)

			outcome, err := c.engine.Submit(ctx, sub)
			if err != nil {
				return err
			}
			switch outcome {
			case offline.OutcomeSubmitted:
				fmt.Println("Report submitted.")
			case offline.OutcomeQueued:
				fmt.Println("You appear to be offline; report queued and will sync when connectivity returns.")
			}
			return nil
		},
	}

	cmd.Flags().String("title", "", "report title (required)")
	cmd.Flags().String("category", "", "report category (required)")
	cmd.Flags().String("description", "", "report description (required)")
	cmd.Flags().String("location", "", "issue location (required)")
	cmd.Flags().StringVar(&photoPath, "photo", "", "path to a photo to attach")
	cmd.Flags().BoolVar(&anonymous, "anonymous", false, "submit anonymously")
	return cmd
}

func newQueueCmd() *cobra.Command {
	queue := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the local pending queue",
	}

	queue.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			pending, err := c.store.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("Queue is empty.")
				return nil
			}
			for _, rec := range pending {
				photo := "-"
				if rec.Photo != nil {
					photo = fmt.Sprintf("%s (%d bytes)", rec.Photo.Name, len(rec.Photo.Data))
				}
				fmt.Printf("%s  %-14s  %-30s  photo=%s  queued=%s\n",
					rec.ID, rec.Category, rec.Title, photo, rec.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	})

	queue.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of queued submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			count, err := c.store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(count)
			return nil
		},
	})

	return queue
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued submissions against the report API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			c.probe(ctx)

			result, err := c.engine.SyncNow(ctx)
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Println("Nothing to sync.")
				return nil
			}
			fmt.Printf("Synced %d, failed %d.\n", result.Synced, result.Failed)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			c.probe(ctx)

			status, err := c.engine.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("connectivity: %s\npending:      %d\nsyncing:      %v\n",
				status.State, status.PendingCount, status.Syncing)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background sync loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Println("Watching connectivity; queued reports sync automatically. Ctrl-C to stop.")
			err = c.engine.Run(cmd.Context(), c.prober)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func loadPhoto(path string) (*offline.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &offline.Photo{
		Name: filepath.Base(path),
		MIME: contentType,
		Data: data,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
