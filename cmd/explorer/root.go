package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/damacus/iron-explorer/internal/browser"
	"github.com/damacus/iron-explorer/internal/config"
	"github.com/damacus/iron-explorer/internal/errs"
	"github.com/damacus/iron-explorer/internal/logger"
	"github.com/damacus/iron-explorer/internal/utils"
	"github.com/spf13/cobra"
)

type cli struct {
	out     io.Writer
	connect connectFunc

	configPath string
	bucket     string
	direct     bool
	sortBy     string
	desc       bool
	verbose    bool
}

func newRootCmd(out io.Writer, connect connectFunc) *cobra.Command {
	c := &cli{out: out, connect: connect}

	rootCmd := &cobra.Command{
		Use:           "explorer",
		Short:         "explorer - browse an S3-compatible bucket",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVarP(&c.bucket, "bucket", "b", "", "Bucket to browse (overrides client.bucket)")
	flags.BoolVar(&c.direct, "direct", false, "Sign URLs locally with the store credentials instead of using the API server")
	flags.StringVar(&c.sortBy, "sort", string(browser.SortByName), "Sort by name, date or size")
	flags.BoolVar(&c.desc, "desc", false, "Sort descending")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		c.lsCmd(),
		c.findCmd(),
		c.uploadCmd(),
		c.rmCmd(),
		c.urlCmd(),
		c.mkdirCmd(),
		c.usageCmd(),
	)
	return rootCmd
}

// open loads the configuration, connects and returns a session positioned at
// the bucket root. The catalog is not fetched yet.
func (c *cli) open(cmd *cobra.Command) (*browser.Session, *connection, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.bucket != "" {
		cfg.Client.Bucket = c.bucket
	}
	if cmd.Flags().Changed("direct") {
		cfg.Client.Direct = c.direct
	}

	by := browser.SortBy(c.sortBy)
	switch by {
	case browser.SortByName, browser.SortByDate, browser.SortBySize:
	default:
		return nil, nil, errs.New(errs.ErrKindValidation, fmt.Sprintf("unknown sort field %q", c.sortBy))
	}
	order := browser.SortAsc
	if c.desc {
		order = browser.SortDesc
	}

	level := cfg.Log.Level
	if c.verbose {
		level = "debug"
	}
	log := logger.New(&logger.Config{Level: level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})

	conn, err := c.connect(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}

	session := browser.NewSession(conn.backend, conn.transport, browser.Options{
		Scope:       browser.ParseScope(cfg.Client.Scope),
		Concurrency: cfg.Client.Concurrency,
		// no keystrokes to debounce on a command line
		Debounce: -1,
		Logger:   log,
		Notifier: &browser.LogNotifier{Logger: log},
	})
	session.SetSort(by, order)
	return session, conn, nil
}

func (c *cli) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder]",
		Short: "List a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if len(args) == 1 && folderKey(args[0]) != "" {
				err = session.Navigate(cmd.Context(), folderKey(args[0]))
			} else {
				err = session.Refresh(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printEntries(c.out, session.Entries(), false)
		},
	}
}

func (c *cli) findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <query>",
		Short: "Search file and folder names across the bucket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Refresh(cmd.Context()); err != nil {
				return err
			}
			session.Search(strings.Join(args, " "))
			return printEntries(c.out, session.Entries(), true)
		},
	}
}

func (c *cli) uploadCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload local files into a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]browser.LocalFile, 0, len(args))
			for _, p := range args {
				f, err := browser.NewDiskFile(p)
				if err != nil {
					return errs.Wrap(errs.ErrKindValidation, "cannot read "+p, err)
				}
				files = append(files, f)
			}

			session, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if dest := folderKey(to); dest != "" {
				if err := session.Navigate(cmd.Context(), dest); err != nil {
					return err
				}
			}
			session.Enqueue(files...)

			res, err := session.Upload(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range res.Tasks {
				if t.Status != browser.StatusCompleted {
					fmt.Fprintf(c.out, "%s\t%s\t%v\n", t.Status, t.File.Name(), t.Err)
				}
			}
			fmt.Fprintf(c.out, "%d uploaded, %d failed, %d cancelled\n", res.Succeeded, res.Failed, res.Cancelled)
			if res.Failed > 0 || res.Cancelled > 0 {
				return errs.New(errs.ErrKindTransport, "some uploads did not complete")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "Destination folder (default: bucket root)")
	return cmd
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>...",
		Short: "Delete files, or folders with everything under them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			deleted, failed := 0, 0
			for _, group := range groupByFolder(args) {
				if err := session.Navigate(cmd.Context(), group.folder); err != nil {
					return err
				}
				for _, key := range group.keys {
					if !selectKey(session, key) {
						return errs.New(errs.ErrKindNotFound, "no such file or folder: "+key)
					}
				}
				fmt.Fprintf(c.out, "deleting %s\n", utils.FormatSelection(session.SelectionSummary()))
				res, err := session.DeleteSelected(cmd.Context())
				if err != nil {
					return err
				}
				deleted += res.Succeeded
				failed += res.Failed
				for _, f := range res.Failures {
					fmt.Fprintf(c.out, "failed\t%s\t%v\n", f.Key, f.Err)
				}
			}

			fmt.Fprintf(c.out, "%d deleted, %d failed\n", deleted, failed)
			if failed > 0 {
				return errs.New(errs.ErrKindTransport, "some deletes failed")
			}
			return nil
		},
	}
}

func (c *cli) urlCmd() *cobra.Command {
	var inline bool
	cmd := &cobra.Command{
		Use:   "url <key>",
		Short: "Print a presigned download link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Refresh(cmd.Context()); err != nil {
				return err
			}
			key := strings.TrimPrefix(args[0], "/")
			var link string
			if inline {
				link, err = session.PreviewURL(cmd.Context(), key)
			} else {
				link, err = session.DownloadURL(cmd.Context(), key)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, link)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "Link for in-browser preview instead of download")
	return cmd
}

func (c *cli) mkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <folder>",
		Short: "Create an empty folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := strings.Trim(args[0], "/")
			if p == "" {
				return errs.New(errs.ErrKindValidation, "folder name is required")
			}
			parent := browser.ParentPath(p)

			session, _, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			if parent != "" {
				if err := session.Navigate(cmd.Context(), parent); err != nil {
					return err
				}
			}
			if err := session.CreateFolder(cmd.Context(), strings.TrimPrefix(p, parent)); err != nil {
				return err
			}
			fmt.Fprintln(c.out, p+"/")
			return nil
		},
	}
}

func (c *cli) usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show how much the bucket stores (MinIO only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, conn, err := c.open(cmd)
			if err != nil {
				return err
			}
			session.Close()

			usage, err := conn.usage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s\t%s\n", usage.Bucket, usage.FormattedSize)
			return nil
		},
	}
}

// folderKey turns a user-typed folder into a catalog folder key.
func folderKey(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

type folderGroup struct {
	folder string
	keys   []string
}

// selectKey selects key, or the folder key+"/", in the current folder. A key
// that is already selected stays selected.
func selectKey(session *browser.Session, key string) bool {
	selected := session.Selected()
	for _, k := range []string{key, key + "/"} {
		if slices.Contains(selected, k) || session.Toggle(k) {
			return true
		}
	}
	return false
}

// groupByFolder buckets keys by their parent folder, keeping first-seen order
// and dropping repeats.
func groupByFolder(keys []string) []folderGroup {
	var groups []folderGroup
	index := make(map[string]int)
	seen := make(map[string]bool)
	for _, key := range keys {
		key = strings.TrimPrefix(key, "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		parent := browser.ParentPath(key)
		i, ok := index[parent]
		if !ok {
			i = len(groups)
			index[parent] = i
			groups = append(groups, folderGroup{folder: parent})
		}
		groups[i].keys = append(groups[i].keys, key)
	}
	return groups
}
