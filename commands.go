package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

const defaultURLList = "scraps.yaml"

// App wires the board and its collaborators from the loaded configuration
type App struct {
	Config    *Config
	Store     DocumentStore
	Board     *Board
	Resolver  *Resolver
	Processor *ScrapProcessor
	Archive   *Archive
}

func configOverrides() *ConfigOverrides {
	overrides := &ConfigOverrides{}
	if settingsPath != "" {
		overrides.SettingsPath = &settingsPath
	}
	if inferencePromptPath != "" {
		overrides.InferencePromptPath = &inferencePromptPath
	}
	if inferenceSchemaPath != "" {
		overrides.InferenceSchemaPath = &inferenceSchemaPath
	}
	return overrides
}

// newApp loads settings, opens the store and restores the saved board
func newApp(ctx context.Context) (*App, error) {
	config, err := NewConfig(configOverrides())
	if err != nil {
		return nil, err
	}
	settings := config.Settings

	store, err := OpenDocumentStore(ctx, settings.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", settings.Storage.Backend, err)
	}

	var opts []BoardOption
	if settings.Board.ViewportWidth > 0 && settings.Board.ViewportHeight > 0 {
		opts = append(opts, WithViewport(settings.Board.ViewportWidth, settings.Board.ViewportHeight))
	}
	board := NewBoard(opts...)
	if err := board.Load(ctx, store); err != nil {
		closeStore(store)
		return nil, err
	}

	key := apiKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	var inferrer MetadataInferrer
	if settings.Inference.Enabled && key != "" {
		agent, err := NewInferenceAgent(key, config)
		if err != nil {
			closeStore(store)
			return nil, err
		}
		inferrer = agent
	} else {
		debugLog("metadata inference disabled")
	}

	resolver := NewResolver(NewMetadataCache(settings.Cache.TTL), NewPageFetcher(settings.Fetch), inferrer)
	return &App{
		Config:    config,
		Store:     store,
		Board:     board,
		Resolver:  resolver,
		Processor: NewScrapProcessor(resolver, board, store),
		Archive:   NewArchive(board, store),
	}, nil
}

// withApp builds the App before running fn
// Close releases the store's connections
func (a *App) Close() error {
	return closeStore(a.Store)
}

func closeStore(store DocumentStore) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func withApp(fn func(cmd *cobra.Command, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				log.Printf("✗ Closing store: %v", err)
			}
		}()
		return fn(cmd, app, args)
	}
}

// spawnFlags are the placement flags shared by the create commands
type spawnFlags struct {
	layout string
	date   string
}

func (f *spawnFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.layout, "layout", string(LayoutFree), "Layout the item is added from (free, monthly, weekly, home)")
	cmd.Flags().StringVar(&f.date, "date", "", "Day (YYYY-MM-DD) or month (YYYY-MM) to file the item under, default today")
}

func (f *spawnFlags) spawnContext() (SpawnContext, error) {
	spawn := SpawnContext{Layout: Layout(f.layout)}
	if f.date != "" {
		date, err := ParseScopeDate(f.date)
		if err != nil {
			return SpawnContext{}, err
		}
		spawn.Date = date
	}
	return spawn, nil
}

// scopeFlags select a board scope
type scopeFlags struct {
	scope string
	date  string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scope, "scope", string(ScopeAll), "Scope to select (all, favorites, day, month)")
	cmd.Flags().StringVar(&f.date, "date", "", "Day or month the scope refers to, default today")
}

func (f *scopeFlags) parse() (ScopeKind, time.Time, error) {
	kind, err := ParseScopeKind(f.scope)
	if err != nil {
		return "", time.Time{}, err
	}
	date := time.Now()
	if f.date != "" {
		if date, err = ParseScopeDate(f.date); err != nil {
			return "", time.Time{}, err
		}
	}
	return kind, date, nil
}

func printItem(w io.Writer, item ScrapItem) {
	flags := ""
	if item.IsMainItem {
		flags += color.YellowString(" [main]")
	}
	if item.IsFavorite {
		flags += color.MagentaString(" ♥")
	}
	fmt.Fprintf(w, "%s  %-12s %-10s z=%-3d %s%s\n",
		color.CyanString(item.ID), item.Type, item.ScopeKey, item.Position.Z, item.Metadata.Title, flags)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// requireItem turns the board's silent no-op on unknown ids into an error
func requireItem(app *App, id string) error {
	if _, ok := app.Board.Item(id); !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return nil
}

// itemCommand builds a command that applies one board mutation to an item
func itemCommand(use, short string, mutate func(b *Board, id string)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if err := requireItem(app, args[0]); err != nil {
				return err
			}
			mutate(app.Board, args[0])
			if err := app.Board.Save(cmd.Context(), app.Store); err != nil {
				return err
			}
			if item, ok := app.Board.Item(args[0]); ok {
				printItem(cmd.OutOrStdout(), item)
			}
			return nil
		}),
	}
}

func registerCommands(root *cobra.Command) {
	root.AddCommand(
		newScrapCommand(),
		newBatchCommand(),
		newQueueCommand(),
		newAddCommand(),
		newResolveCommand(),
		newListCommand(),
		newMoveCommand(),
		itemCommand("front", "Bring an item to the front", (*Board).BringToFront),
		itemCommand("main", "Toggle an item as the main item of its page", (*Board).SetMainItem),
		itemCommand("favorite", "Toggle an item's favorite flag", (*Board).ToggleFavorite),
		newBorderCommand(),
		newDeleteCommand(),
		newClearCommand(),
		newTextCommand(),
		newStyleCommand(),
		newExportCommand(),
		newImportCommand(),
		newBackupCommand(),
		newServeCommand(),
		newConfigCommand(),
	)
}

func newScrapCommand() *cobra.Command {
	var (
		spawn       spawnFlags
		youtubeMode string
		startTime   int
	)
	cmd := &cobra.Command{
		Use:   "scrap <url>",
		Short: "Add a link to the board",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			spawnCtx, err := spawn.spawnContext()
			if err != nil {
				return err
			}
			opts := IntakeOptions{Spawn: spawnCtx}
			if cmd.Flags().Changed("youtube-mode") || cmd.Flags().Changed("start-time") {
				opts.YouTube = &YouTubeConfig{Mode: youtubeMode, StartTime: startTime}
			}

			item, err := app.Processor.Intake(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			printItem(cmd.OutOrStdout(), item)
			return nil
		}),
	}
	spawn.register(cmd)
	cmd.Flags().StringVar(&youtubeMode, "youtube-mode", "player", "YouTube card mode (player or cd)")
	cmd.Flags().IntVar(&startTime, "start-time", 0, "YouTube start offset in seconds")
	return cmd
}

func newBatchCommand() *cobra.Command {
	var spawn spawnFlags
	cmd := &cobra.Command{
		Use:   "batch [list-file|csv-url]",
		Short: "Add every URL of a YAML list or a remote CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			source := defaultURLList
			if len(args) > 0 {
				source = args[0]
			}
			spawnCtx, err := spawn.spawnContext()
			if err != nil {
				return err
			}

			results, err := app.Processor.ProcessURLsFromFile(cmd.Context(), source, spawnCtx)
			if err != nil {
				return err
			}

			var added, skipped, failed int
			for _, r := range results {
				switch r.Status {
				case StatusSuccess:
					added++
				case StatusSkipped:
					skipped++
				default:
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s added, %s skipped, %s failed\n",
				color.GreenString("%d", added), color.YellowString("%d", skipped), color.RedString("%d", failed))
			return nil
		}),
	}
	spawn.register(cmd)
	return cmd
}

func newQueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queue <url> [list-file]",
		Short: "Append a URL to a YAML list for a later batch run",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listPath := defaultURLList
			if len(args) > 1 {
				listPath = args[1]
			}
			if err := addURLToList(listPath, args[0]); err != nil {
				return err
			}
			log.Printf("✓ Queued %s in %s", args[0], listPath)
			return nil
		},
	}
}

func newAddCommand() *cobra.Command {
	var (
		spawn    spawnFlags
		metadata Metadata
		config   string
	)
	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Create a hand-made item such as a note, sticker or ticket",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			contentType := ContentType(args[0])
			if !contentType.Valid() {
				return fmt.Errorf("unknown content type %q", args[0])
			}
			spawnCtx, err := spawn.spawnContext()
			if err != nil {
				return err
			}

			md := metadata
			md.IsEditable = true
			if config != "" {
				if md.Config, err = DecodeTypeConfig(contentType, json.RawMessage(config)); err != nil {
					return err
				}
			}

			item, err := app.Processor.CreateManual(cmd.Context(), contentType, md, spawnCtx)
			if err != nil {
				return err
			}
			printItem(cmd.OutOrStdout(), item)
			return nil
		}),
	}
	spawn.register(cmd)
	cmd.Flags().StringVar(&metadata.Title, "title", "", "Title")
	cmd.Flags().StringVar(&metadata.Subtitle, "subtitle", "", "Subtitle")
	cmd.Flags().StringVar(&metadata.Description, "description", "", "Description")
	cmd.Flags().StringVar(&metadata.ImageURL, "image", "", "Image URL")
	cmd.Flags().StringVar(&metadata.URL, "url", "", "Link the item points to")
	cmd.Flags().StringVar(&metadata.ThemeColor, "theme-color", "", "Theme color")
	cmd.Flags().StringVar(&config, "config", "", `Type config block as JSON, e.g. '{"text":"hello"}' for a note`)
	return cmd
}

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <url>",
		Short: "Show the metadata a link resolves to without adding it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if err := validateURL(args[0]); err != nil {
				return err
			}
			contentType := Classify(args[0])
			resolved := app.Resolver.Resolve(cmd.Context(), args[0], contentType)
			return printJSON(cmd.OutOrStdout(), resolveResponse{
				Type:     contentType,
				Strategy: resolved.Strategy,
				Fallback: resolved.Fallback,
				Metadata: resolved.Metadata,
			})
		}),
	}
}

func newListCommand() *cobra.Command {
	var (
		scope  scopeFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the items of a scope",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			kind, date, err := scope.parse()
			if err != nil {
				return err
			}
			items := app.Board.Filter(kind, date)
			if asJSON {
				if items == nil {
					items = []ScrapItem{}
				}
				return printJSON(cmd.OutOrStdout(), items)
			}
			for _, item := range items {
				printItem(cmd.OutOrStdout(), item)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items")
			}
			return nil
		}),
	}
	scope.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func newMoveCommand() *cobra.Command {
	var x, y, rotation, scale float64
	cmd := &cobra.Command{
		Use:   "move <item-id>",
		Short: "Change an item's position, rotation or scale",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if err := requireItem(app, args[0]); err != nil {
				return err
			}

			var patch PositionPatch
			if cmd.Flags().Changed("x") {
				patch.X = &x
			}
			if cmd.Flags().Changed("y") {
				patch.Y = &y
			}
			if cmd.Flags().Changed("rotation") {
				patch.Rotation = &rotation
			}
			if cmd.Flags().Changed("scale") {
				patch.Scale = &scale
			}
			app.Board.UpdatePosition(args[0], patch)

			if err := app.Board.Save(cmd.Context(), app.Store); err != nil {
				return err
			}
			item, _ := app.Board.Item(args[0])
			printItem(cmd.OutOrStdout(), item)
			return nil
		}),
	}
	cmd.Flags().Float64Var(&x, "x", 0, "X coordinate")
	cmd.Flags().Float64Var(&y, "y", 0, "Y coordinate")
	cmd.Flags().Float64Var(&rotation, "rotation", 0, "Rotation in degrees")
	cmd.Flags().Float64Var(&scale, "scale", 1, fmt.Sprintf("Scale multiplier, clamped to [%.1f, %.1f]", MinScale, MaxScale))
	return cmd
}

func newBorderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "border <item-id> <none|stitch|marker|tape|shadow>",
		Short: "Set an item's border style",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			style := BorderStyle(args[1])
			if !style.Valid() {
				return fmt.Errorf("unknown border style %q", args[1])
			}
			if err := requireItem(app, args[0]); err != nil {
				return err
			}
			app.Board.SetBorderStyle(args[0], style)
			return app.Board.Save(cmd.Context(), app.Store)
		}),
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Remove an item from the board",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if err := requireItem(app, args[0]); err != nil {
				return err
			}
			app.Board.Delete(args[0])
			if err := app.Board.Save(cmd.Context(), app.Store); err != nil {
				return err
			}
			log.Printf("✓ Deleted %s", args[0])
			return nil
		}),
	}
}

func newClearCommand() *cobra.Command {
	var (
		scope    scopeFlags
		scopeKey string
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item of a scope, or of one scope key with --key",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			var removed int
			if scopeKey != "" {
				removed = app.Board.DeleteByScope(scopeKey)
			} else {
				kind, date, err := scope.parse()
				if err != nil {
					return err
				}
				removed = app.Board.ClearFiltered(kind, date)
			}
			if err := app.Board.Save(cmd.Context(), app.Store); err != nil {
				return err
			}
			log.Printf("✓ Removed %d items", removed)
			return nil
		}),
	}
	scope.register(cmd)
	cmd.Flags().StringVar(&scopeKey, "key", "", "Exact scope key (YYYY-MM-DD or YYYY-MM) to clear")
	return cmd
}

func newTextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "text <scope-key> [field value]",
		Short: "Show or set the free text of a page",
		Long:  fmt.Sprintf("Show or set the free text of a page. Fields: %v", TextFields()),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("accepts 1 or 3 args, received %d", len(args))
			}
			return nil
		},
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			ctx := cmd.Context()
			text, err := LoadTextData(ctx, app.Store)
			if err != nil {
				return err
			}
			if len(args) == 3 {
				if text, err = text.UpdateText(args[0], args[1], args[2]); err != nil {
					return err
				}
				if err := SaveTextData(ctx, app.Store, text); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), text[args[0]])
		}),
	}
}

func newStyleCommand() *cobra.Command {
	var coverColor, pattern, keyring, background string
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Show or change the diary style",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			ctx := cmd.Context()
			style, err := LoadStyle(ctx, app.Store)
			if err != nil {
				return err
			}

			changed := false
			set := func(flag string, dst *string, value string) {
				if cmd.Flags().Changed(flag) {
					*dst = value
					changed = true
				}
			}
			set("cover-color", &style.CoverColor, coverColor)
			set("keyring", &style.Keyring, keyring)
			set("background", &style.BackgroundImage, background)
			if cmd.Flags().Changed("pattern") {
				style.CoverPattern = CoverPattern(pattern)
				changed = true
			}

			if changed {
				if err := validator.New().Struct(style); err != nil {
					return fmt.Errorf("invalid style: %v", formatValidationError(err))
				}
				if err := SaveStyle(ctx, app.Store, style); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), style)
		}),
	}
	cmd.Flags().StringVar(&coverColor, "cover-color", "", "Cover color as #rrggbb")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Cover pattern (quilt, leather, denim, fur)")
	cmd.Flags().StringVar(&keyring, "keyring", "", "Keyring image URL")
	cmd.Flags().StringVar(&background, "background", "", "Background image URL")
	return cmd
}

func newExportCommand() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export items, text and style to a file",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown export format %q", format)
			}
			doc, err := app.Archive.Export(cmd.Context())
			if err != nil {
				return err
			}

			if output == "" {
				return WriteExport(cmd.OutOrStdout(), doc, format)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			if err := WriteExport(f, doc, format); err != nil {
				return err
			}
			log.Printf("✓ Exported %d items to %s", len(doc.Items), output)
			return nil
		}),
	}
	cmd.Flags().StringVar(&format, "format", "json", "Export format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, default stdout")
	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import an export file, backing up the current diary first",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			doc, err := ReadExport(data)
			if err != nil {
				return err
			}
			return app.Archive.Import(cmd.Context(), doc)
		}),
	}
}

func parseBackupID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid backup id %q", arg)
	}
	return id, nil
}

func newBackupCommand() *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore and delete backups",
	}

	var description string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot items, text and style",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			backup, err := app.Archive.CreateBackup(cmd.Context(), description)
			if err != nil {
				return err
			}
			log.Printf("✓ Created backup %d (%d items)", backup.ID, len(backup.Items))
			return nil
		}),
	}
	createCmd.Flags().StringVarP(&description, "description", "m", "", "Backup description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			backups, err := app.Archive.ListBackups(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range backups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %3d items  %s\n",
					color.CyanString("%4d", b.ID), b.Timestamp.Local().Format("2006-01-02 15:04"), b.Items, b.Description)
			}
			if len(backups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups")
			}
			return nil
		}),
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Replace the diary with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			id, err := parseBackupID(args[0])
			if err != nil {
				return err
			}
			backup, err := app.Archive.RestoreBackup(cmd.Context(), id)
			if err != nil {
				return err
			}
			log.Printf("✓ Restored backup %d (%d items)", backup.ID, len(backup.Items))
			return nil
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <backup-id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			id, err := parseBackupID(args[0])
			if err != nil {
				return err
			}
			return app.Archive.DeleteBackup(cmd.Context(), id)
		}),
	}

	backupCmd.AddCommand(createCmd, listCmd, restoreCmd, deleteCmd)
	return backupCmd
}

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, args []string) error {
			if addr == "" {
				addr = app.Config.Settings.Server.Addr
			}
			server := NewServer(app.Board, app.Store, app.Resolver, app.Processor, app.Archive)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Listening on %s", addr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-cmd.Context().Done():
			}

			log.Printf("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutting down server: %w", err)
			}
			return app.Board.Save(ctx, app.Store)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, default from settings")
	return cmd
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := NewConfig(configOverrides())
			if err != nil {
				return err
			}
			return writeSettings(cmd.OutOrStdout(), config.Settings)
		},
	}
}
