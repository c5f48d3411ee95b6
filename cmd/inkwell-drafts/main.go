package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joho/godotenv"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/debemdeboas/inkwell/internal/util/compression"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

type entry struct {
	key  string
	snap model.DraftSnapshot
}

func load(ctx context.Context, store draft.LocalStore) ([]entry, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		snap, ok, err := store.Get(ctx, k)
		if err != nil {
			// A corrupt draft must not hide the others.
			fmt.Fprintln(os.Stderr, outputStyle.Render(fmt.Sprintf("Skipping %s: %v", k, err)))
			continue
		}
		if ok {
			entries = append(entries, entry{key: k, snap: snap})
		}
	}
	return entries, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func render(entries []entry) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("#", "KEY", "POST", "TITLE", "WORDS", "TAGS", "SAVED")

	for i, e := range entries {
		post := "new"
		if !e.snap.PostID.IsNew() {
			post = strconv.FormatInt(int64(e.snap.PostID), 10)
		}
		tags := make([]string, len(e.snap.TagIDs))
		for j, id := range e.snap.TagIDs {
			tags[j] = string(id)
		}
		title := e.snap.Title
		if strings.TrimSpace(title) == "" {
			title = "Untitled"
		}
		t.Row(
			strconv.Itoa(i+1),
			e.key,
			post,
			truncate(title, 40),
			strconv.Itoa(words(e.snap.Content)),
			strings.Join(tags, ","),
			e.snap.Timestamp.Local().Format(time.DateTime),
		)
	}
	return t.Render()
}

func words(content string) int {
	n := dom.Element("div")
	if err := dom.SetInnerHTML(n, content); err != nil {
		return 0
	}
	return util.WordCount(dom.TextContent(n))
}

// pick resolves a row number or a key to an entry.
func pick(entries []entry, arg string) (entry, bool) {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1], true
	}
	for _, e := range entries {
		if e.key == arg {
			return e, true
		}
	}
	return entry{}, false
}

// interact reads commands until quit or EOF.
func interact(ctx context.Context, store draft.LocalStore, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		entries, err := load(ctx, store)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, outputStyle.Render("No local drafts."))
			return nil
		}
		fmt.Fprintln(out, render(entries))
		fmt.Fprint(out, promptStyle.Render("show <n> | delete <n> | quit: "))

		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "q" {
			return nil
		}
		if len(fields) != 2 {
			fmt.Fprintln(out, outputStyle.Render("Expected a command and a draft"))
			continue
		}
		e, ok := pick(entries, fields[1])
		if !ok {
			fmt.Fprintln(out, outputStyle.Render("No such draft: "+fields[1]))
			continue
		}

		switch fields[0] {
		case "show", "s":
			fmt.Fprintln(out, outputStyle.Render(e.snap.Title))
			if e.snap.Description != "" {
				fmt.Fprintln(out, e.snap.Description)
			}
			fmt.Fprintln(out, e.snap.Content)
		case "delete", "d":
			if err := store.Delete(ctx, e.key); err != nil {
				return err
			}
			fmt.Fprintln(out, outputStyle.Render("Deleted "+e.key))
		default:
			fmt.Fprintln(out, outputStyle.Render("Unknown command: "+fields[0]))
		}
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	backend := flag.String("drafts", "", "local draft backend (sqlite or redis), defaults to drafts.backend")
	list := flag.Bool("list", false, "print the drafts and exit")
	flag.Parse()

	_ = godotenv.Load()
	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if *backend != "" {
		cfg.Drafts.Backend = *backend
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	db.SetLogger(log)
	draft.SetLogger(log)

	ctx := context.Background()
	codec, err := compression.ForName(cfg.Database.Compression)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid compression")
	}
	var d db.Db
	if cfg.Drafts.Backend == "sqlite" {
		s := db.NewSQLite(cfg.Database.Path)
		if err := s.InitDb(); err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer s.Close()
		d = s
	}
	store, closeStore, err := draft.OpenStore(ctx, cfg.Drafts, d, codec)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open draft store")
	}
	defer closeStore()

	if *list {
		entries, err := load(ctx, store)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list drafts")
		}
		fmt.Println(render(entries))
		return
	}
	if err := interact(ctx, store, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Draft browser stopped")
	}
}
