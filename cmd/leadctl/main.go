// leadctl: operator CLI for the leadsync store.
//
//	leadctl profiles [add|rm]   list, create or delete profiles
//	leadctl scan                run one scan for a profile
//	leadctl export              write leads as CSV
//	leadctl status [lead st]    show the board overview or move a lead
//
// It reads the same environment (and .env) as the service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"leadsync/internal/ai"
	"leadsync/internal/collection"
	"leadsync/internal/config"
	"leadsync/internal/discovery"
	"leadsync/internal/model"
	"leadsync/internal/outreach"
	"leadsync/internal/prompt"
	"leadsync/internal/store"
)

var (
	titleColor = color.New(color.FgWhite, color.Bold)
	itemColor  = color.New(color.FgCyan)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	dimColor   = color.New(color.FgHiBlack)
)

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "profiles":
		err = runProfiles(ctx, args)
	case "scan":
		err = runScan(ctx, args)
	case "export":
		err = runExport(ctx, args)
	case "status":
		err = runStatus(ctx, args)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		errColor.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	titleColor.Fprintln(w, "leadctl: manage leadsync profiles and leads")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  profiles                       list profiles")
	fmt.Fprintln(w, "  profiles add -name N -keywords \"a, b\" [-exclude \"c\"] [-niche X] [-location Y]")
	fmt.Fprintln(w, "  profiles rm ID                 delete a profile and its leads")
	fmt.Fprintln(w, "  scan -profile ID [-platform P] [-groups ID,ID]")
	fmt.Fprintln(w, "  export [-profile ID] [-platform P] [-status S] [-o FILE]")
	fmt.Fprintln(w, "  status                         overview counts")
	fmt.Fprintln(w, "  status LEAD_ID STATUS          move a lead")
}

// ─── Wiring ──────────────────────────────────────────────────────────────────

type app struct {
	cfg   *config.Config
	repo  *store.Repository
	close func()
}

func open(ctx context.Context, needAI bool) (*app, error) {
	load := config.LoadWithoutAI
	if needAI {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := config.ApplyRules(cfg.RulesFile); err != nil {
		return nil, err
	}
	kv, closeFn, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &app{cfg: cfg, repo: store.NewRepository(kv), close: closeFn}, nil
}

// ─── Commands ────────────────────────────────────────────────────────────────

func runProfiles(ctx context.Context, args []string) error {
	a, err := open(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()
	svc := collection.NewService(a.repo, nil)

	if len(args) == 0 {
		profiles, err := svc.List(ctx)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			warnColor.Println("No profiles.")
			return nil
		}
		for _, p := range profiles {
			printProfile(p)
		}
		return nil
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("profiles add", flag.ContinueOnError)
		name := fs.String("name", "", "profile name")
		keywords := fs.String("keywords", "", "comma-separated keywords")
		exclude := fs.String("exclude", "", "comma-separated excluded keywords")
		niche := fs.String("niche", "", "business niche")
		location := fs.String("location", "", "target location")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		p, err := svc.Create(ctx, collection.Input{
			Name:            *name,
			Keywords:        collection.ParseList(*keywords),
			ExcludeKeywords: collection.ParseList(*exclude),
			Niche:           *niche,
			Location:        *location,
		})
		if err != nil {
			return err
		}
		okColor.Printf("Created profile %s\n", p.ID)
		printProfile(p)
		return nil

	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: leadctl profiles rm ID")
		}
		removed, err := svc.Delete(ctx, args[1])
		if err != nil {
			return err
		}
		okColor.Printf("Deleted profile %s and %d lead(s)\n", args[1], removed)
		return nil
	}
	return fmt.Errorf("unknown profiles subcommand %q", args[0])
}

func runScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	profileID := fs.String("profile", "", "profile id")
	platformLabel := fs.String("platform", "", "restrict to one platform")
	groups := fs.String("groups", "", "comma-separated stored group ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *profileID == "" {
		return fmt.Errorf("-profile is required")
	}

	a, err := open(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	gem, err := ai.NewGemini(ctx, ai.Config{
		APIKey:      a.cfg.GeminiAPIKey,
		Model:       a.cfg.GeminiModel,
		Temperature: a.cfg.GeminiTemperature,
		Timeout:     a.cfg.AITimeout,
		RPM:         a.cfg.GeminiRPM,
		RPD:         a.cfg.GeminiRPD,
	})
	if err != nil {
		return err
	}
	worker := discovery.NewWorker(a.repo, gem, gem, nil,
		discovery.WithBuilder(prompt.Builder{RecencyDays: a.cfg.RecencyDays}))

	res, err := worker.ScanProfile(ctx, *profileID, *platformLabel, collection.ParseList(*groups))
	if err != nil {
		return err
	}
	okColor.Printf("Found %d, added %d new lead(s)\n", res.Found, res.Added)
	for _, l := range res.Leads {
		printLead(l)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	profileID := fs.String("profile", "", "only leads of this profile")
	platformLabel := fs.String("platform", "", "only leads from this platform")
	status := fs.String("status", "", "only leads with this status")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := open(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	svc := outreach.NewService(a.repo, nil)
	filter := outreach.Filter{ProfileID: *profileID, Platform: *platformLabel, Status: *status}
	if err := svc.ExportCSV(ctx, w, filter); err != nil {
		return err
	}
	if *out != "" {
		okColor.Printf("Wrote %s\n", *out)
	}
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	a, err := open(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()
	svc := outreach.NewService(a.repo, nil)

	switch len(args) {
	case 0:
		ov, err := svc.Overview(ctx, "")
		if err != nil {
			return err
		}
		titleColor.Printf("%d lead(s) across %d profile(s), %d group(s)\n", ov.Total, ov.Profiles, ov.Groups)
		fmt.Println()
		titleColor.Println("By status")
		for _, s := range outreach.AllStatuses() {
			fmt.Printf("  %-18s %d\n", s, ov.ByStatus[string(s)])
		}
		fmt.Println()
		titleColor.Println("By platform")
		for _, name := range sortedKeys(ov.ByPlatform) {
			fmt.Printf("  %-18s %d\n", name, ov.ByPlatform[name])
		}
		return nil
	case 2:
		l, err := svc.SetStatus(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		okColor.Printf("Lead %s is now %s\n", l.ID, l.Status)
		return nil
	}
	return fmt.Errorf("usage: leadctl status [LEAD_ID STATUS]")
}

// ─── Output ──────────────────────────────────────────────────────────────────

func printProfile(p model.Profile) {
	itemColor.Printf("%s  ", p.ID)
	titleColor.Println(p.Name)
	fmt.Printf("    keywords: %s\n", strings.Join(p.Keywords, ", "))
	if len(p.ExcludeKeywords) > 0 {
		fmt.Printf("    exclude:  %s\n", strings.Join(p.ExcludeKeywords, ", "))
	}
	dimColor.Printf("    %s · %s · created %s\n", p.Niche, p.Location, p.CreatedAt.Format("2006-01-02"))
}

func printLead(l model.Lead) {
	itemColor.Printf("[%s] ", l.Platform)
	titleColor.Println(l.Title)
	fmt.Printf("    %s\n", l.URL)
	dimColor.Printf("    relevance %d · %s\n", l.RelevanceScore, l.Status)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
