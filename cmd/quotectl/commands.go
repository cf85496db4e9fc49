package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/fieldquote-sync/internal/app"
	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
	"github.com/joseph-ayodele/fieldquote-sync/internal/profiles"
	"github.com/joseph-ayodele/fieldquote-sync/internal/quotes"
)

func newFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet("quotectl "+name, pflag.ContinueOnError)
}

func runOnboard(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("onboard")
	name := fs.String("name", "", "business name")
	owner := fs.String("owner", "", "owner name")
	email := fs.String("email", "", "business email")
	phone := fs.String("phone", "", "business phone")
	server := fs.String("server", "", "acceptance server URL")
	apiKey := fs.String("api-key", "", "acceptance server API key")
	currency := fs.String("currency", "", "ISO 4217 currency code")
	taxRate := fs.Float64("tax-rate", 0, "default tax rate in percent")
	validity := fs.Int("validity-days", 30, "quote validity window in days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := entity.NewBusinessProfile(*name, *owner, *email, *phone)
	p.ServerURL = *server
	p.Currency = *currency
	p.DefaultTaxRate = *taxRate
	p.QuoteValidityDays = *validity
	if *apiKey != "" {
		p.APIKey = entity.Ptr(*apiKey)
	}

	saved, err := a.Profiles.Put(ctx, profiles.Normalize(p))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "business %s created\n", saved.BusinessID)

	res := a.Tokens.RegisterProfile(ctx, saved)
	reportRegistration(out, res)
	return nil
}

func runRegister(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if err := newFlags("register").Parse(args); err != nil {
		return err
	}
	p, err := a.Profiles.Get(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return common.NotInitializedError("register")
	}
	reportRegistration(out, a.Tokens.RegisterProfile(ctx, *p))
	return nil
}

func reportRegistration(out io.Writer, res common.Result) {
	if res.OK() {
		fmt.Fprintln(out, "registered with acceptance server")
		return
	}
	fmt.Fprintf(out, "registration pending: %v\n", res.Err)
}

type profileView struct {
	entity.BusinessProfile
	APIKey        string `json:"apiKey,omitempty"`
	DeliveryToken string `json:"fcmToken,omitempty"`

	ResolvedNotificationEmail string `json:"resolvedNotificationEmail"`
	ResolvedNotificationPhone string `json:"resolvedNotificationPhone"`
	SetupComplete             bool   `json:"setupComplete"`
	Complete                  bool   `json:"complete"`
}

func runShow(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if err := newFlags("show").Parse(args); err != nil {
		return err
	}
	p, err := a.Profiles.Get(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return common.NotInitializedError("show")
	}
	v := profileView{
		BusinessProfile:           *p,
		ResolvedNotificationEmail: p.NotificationEmailAddress(),
		ResolvedNotificationPhone: p.NotificationPhoneNumber(),
		SetupComplete:             a.Profiles.IsSetupComplete(),
		Complete:                  p.IsComplete(),
	}
	if p.APIKey != nil {
		v.APIKey = "(set)"
	}
	if p.DeliveryToken != nil {
		v.DeliveryToken = "(set)"
	}
	return printJSON(out, v)
}

func runPrefs(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("prefs")
	push := fs.Bool("push", true, "enable push notifications")
	email := fs.Bool("email", true, "enable email notifications")
	sms := fs.Bool("sms", true, "enable SMS notifications")
	notifyEmail := fs.String("notify-email", "", "override address for email notifications")
	notifyPhone := fs.String("notify-phone", "", "override number for SMS notifications")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var prefs profiles.NotificationPreferences
	if fs.Changed("push") {
		prefs.EnablePush = push
	}
	if fs.Changed("email") {
		prefs.EnableEmail = email
	}
	if fs.Changed("sms") {
		prefs.EnableSms = sms
	}
	if fs.Changed("notify-email") {
		prefs.NotificationEmail = notifyEmail
	}
	if fs.Changed("notify-phone") {
		prefs.NotificationPhone = notifyPhone
	}
	p, err := a.Profiles.UpdateNotificationPreferences(ctx, prefs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "notifications: push=%t email=%t sms=%t -> %s / %s\n",
		p.EnablePushNotifications, p.EnableEmailNotifications, p.EnableSmsNotifications,
		p.NotificationEmailAddress(), p.NotificationPhoneNumber())
	return nil
}

func runServer(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("server")
	url := fs.String("url", "", "acceptance server URL")
	apiKey := fs.String("api-key", "", "API key; omit to remove the stored key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var key *string
	if fs.Changed("api-key") && *apiKey != "" {
		key = apiKey
	}
	p, err := a.Profiles.UpdateServerConfig(ctx, *url, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "server set to %s\n", p.ServerURL)
	return nil
}

func runLink(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: quotectl link <transfer-id>")
	}
	p, err := a.Profiles.Get(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return common.NotInitializedError("link")
	}
	fmt.Fprintln(out, quotes.BuildAcceptanceLink(fs.Arg(0), *p))
	return nil
}

func runStatus(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: quotectl status <transfer-id>")
	}
	return printJSON(out, a.Quotes.CheckStatus(ctx, fs.Arg(0)))
}

func runUpload(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("upload")
	quotePath := fs.String("quote", "", "quote file (.json, .yaml or .yml)")
	pdfPath := fs.String("pdf", "", "rendered quote PDF")
	share := fs.Bool("share", false, "also build the share link and message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *quotePath == "" || *pdfPath == "" {
		return fmt.Errorf("usage: quotectl upload --quote quote.json --pdf quote.pdf [--share]")
	}

	raw, err := os.ReadFile(*quotePath)
	if err != nil {
		return fmt.Errorf("read quote: %w", err)
	}
	q, err := decodeQuote(*quotePath, raw)
	if err != nil {
		return err
	}
	pdf, err := os.ReadFile(*pdfPath)
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}

	if !*share {
		id, err := a.Quotes.Upload(ctx, q, pdf)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id)
		return nil
	}

	res, err := a.Quotes.Share(ctx, q, pdf)
	if err != nil {
		return err
	}
	if res.Offline {
		fmt.Fprintf(out, "upload failed; send %s directly\n", *pdfPath)
		return nil
	}
	fmt.Fprintf(out, "transfer: %s\nlink: %s\n\n%s\n", res.TransferID, res.Link, res.Message)
	return nil
}

// decodeQuote reads a quote authored as JSON or YAML. YAML keys use the same
// camelCase names as the JSON form.
func decodeQuote(path string, raw []byte) (entity.Quote, error) {
	var q entity.Quote
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return q, fmt.Errorf("parse quote: %w", err)
		}
		bs, err := json.Marshal(doc)
		if err != nil {
			return q, fmt.Errorf("parse quote: %w", err)
		}
		raw = bs
	}
	if err := json.Unmarshal(raw, &q); err != nil {
		return q, fmt.Errorf("parse quote: %w", err)
	}
	return q, nil
}

func runHistory(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("history")
	limit := fs.Int("limit", 0, "maximum entries, oldest first (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entries, err := a.History.List(ctx, *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECEIVED\tTYPE\tTITLE\tREFERENCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.ReceivedAt.Format("2006-01-02 15:04:05"), e.EventType, e.Title, e.Reference)
	}
	return tw.Flush()
}

func runExportHistory(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("export-history")
	path := fs.String("out", "notifications.xlsx", "output file")
	fromStr := fs.String("from", "", "first day, YYYY-MM-DD")
	toStr := fs.String("to", "", "last day, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	from, err := parseDate(*fromStr)
	if err != nil {
		return err
	}
	to, err := parseDate(*toStr)
	if err != nil {
		return err
	}
	data, err := a.Export.HistoryXLSX(ctx, from, to)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *path, err)
	}
	fmt.Fprintf(out, "wrote %s\n", *path)
	return nil
}

func runReset(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := newFlags("reset")
	yes := fs.Bool("yes", false, "confirm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("reset erases the business profile; pass --yes to confirm")
	}
	if err := a.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "profile erased")
	return nil
}
