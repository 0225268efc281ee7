package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vera-byte/vgo-ngo-admin/internal/views"
	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
	"github.com/vera-byte/vgo-ngo-admin/pkg/format"
	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

// responseError 后端返回的失败响应
type responseError struct {
	resp *model.APIResponse
}

func (e *responseError) Error() string {
	msg := e.resp.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.resp.Status > 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.resp.Status)
	}
	return msg
}

// check 将失败响应转换为错误
func check(resp *model.APIResponse) error {
	if resp.Success {
		return nil
	}
	return &responseError{resp: resp}
}

// withApp 为命令组装依赖并在结束后释放
func withApp(flags *rootFlags, run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, flags, "warn")
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

// lookupResource 解析资源名称
func lookupResource(a *app, name string) (views.View, *client.Resource, error) {
	v, err := views.Lookup(name)
	if err != nil {
		return views.View{}, nil, fmt.Errorf("%w (known: %s)", err, strings.Join(views.Names(), ", "))
	}
	res, ok := client.NewAdminService(a.client).Resource(v.Resource)
	if !ok {
		res = client.NewResource(a.client, "/"+v.Resource)
	}
	return v, res, nil
}

// askConfirm 询问用户确认，只有 y 或 yes 视为同意
func askConfirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// printJSON 缩进输出JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printData 缩进输出响应中的data字段
func printData(w io.Writer, resp *model.APIResponse) error {
	resp = resp.Unwrap()
	if !resp.HasData() {
		return nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, resp.Data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

// parseValue 能按JSON解析的非字符串值保留类型，其余按字符串处理
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		if _, isString := v.(string); !isString {
			return v
		}
	}
	return s
}

// parsePairs 解析 key=value 列表
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid key=value pair: %q", p)
		}
		out[k] = v
	}
	return out, nil
}

// bodyFlags 创建和更新命令的请求体参数
type bodyFlags struct {
	data   string
	fields []string
	files  []string
}

func (b *bodyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.data, "data", "", "JSON file with the record (- for stdin)")
	cmd.Flags().StringArrayVar(&b.fields, "field", nil, "record field as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&b.files, "file", nil, "file upload as field=path (repeatable, sends multipart)")
}

// build 按参数构造请求体，带文件时使用multipart表单
func (b *bodyFlags) build(stdin io.Reader) (client.Body, error) {
	if b.data != "" && (len(b.fields) > 0 || len(b.files) > 0) {
		return client.Body{}, errors.New("--data cannot be combined with --field or --file")
	}

	if b.data != "" {
		var raw []byte
		var err error
		if b.data == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(b.data)
		}
		if err != nil {
			return client.Body{}, fmt.Errorf("failed to read %s: %w", b.data, err)
		}
		if !json.Valid(raw) {
			return client.Body{}, fmt.Errorf("%s is not valid JSON", b.data)
		}
		return client.RawBody(bytes.NewReader(raw), "application/json"), nil
	}

	fields, err := parsePairs(b.fields)
	if err != nil {
		return client.Body{}, err
	}
	files, err := parsePairs(b.files)
	if err != nil {
		return client.Body{}, err
	}
	if len(fields) == 0 && len(files) == 0 {
		return client.Body{}, errors.New("one of --data, --field or --file is required")
	}

	if len(files) > 0 {
		form := client.NewForm()
		for _, k := range sortedKeys(fields) {
			form.Field(k, fields[k])
		}
		for _, k := range sortedKeys(files) {
			form.FileFromPath(k, files[k])
		}
		return form.Body()
	}

	obj := make(map[string]any, len(fields))
	for k, v := range fields {
		obj[k] = parseValue(v)
	}
	return client.JSONBody(obj)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// addConsoleCommands 注册命令行管理命令
func addConsoleCommands(root *cobra.Command, flags *rootFlags) {
	root.AddCommand(
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newStatusCmd(flags),
		newStatsCmd(flags),
		newListCmd(flags),
		newGetCmd(flags),
		newActionCmd(flags),
		newDeleteCmd(flags),
		newCreateCmd(flags),
		newUpdateCmd(flags),
		newSetStatusCmd(flags),
		newProbeCmd(flags),
		newViewsCmd(flags),
		newConfigCmd(flags),
	)
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				password = strings.TrimSpace(line)
			}
			resp := a.client.Login(cmd.Context(), model.LoginRequest{Email: email, Password: password})
			if err := check(resp); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			session := a.client.Session(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (session expires %s)\n",
				session.Email, session.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored admin session",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current admin session",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			w := cmd.OutOrStdout()
			session := a.client.Session(cmd.Context())
			fmt.Fprintf(w, "Backend: %s\n", a.client.BaseURL())
			if !session.Authenticated {
				fmt.Fprintln(w, "Not logged in")
				return nil
			}
			fmt.Fprintf(w, "Logged in as %s\n", session.Email)
			fmt.Fprintf(w, "Session expires %s\n", session.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		}),
	}
}

func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			resp := client.NewAdminService(a.client).Stats(cmd.Context())
			if err := check(resp); err != nil {
				return err
			}
			var stats map[string]any
			if err := resp.Unwrap().DecodeData(&stats); err != nil {
				return fmt.Errorf("failed to decode stats: %w", err)
			}

			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			table := newInfoTable(cmd.OutOrStdout(), []string{"Metric", "Value"})
			for _, k := range keys {
				value := model.Stringify(stats[k])
				if f, ok := stats[k].(float64); ok {
					value = format.Number(f)
				}
				table.Append([]string{k, value})
			}
			table.Render()
			return nil
		}),
	}
}

func newListCmd(flags *rootFlags) *cobra.Command {
	var (
		q       views.Query
		filters []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records with search, filters and pagination",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			v, res, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			cfg, err := a.views.LoadConfig(v.Resource)
			if err != nil {
				return err
			}
			if !cfg.Enabled {
				return fmt.Errorf("view %s is disabled", v.Resource)
			}
			if q.Filters, err = parsePairs(filters); err != nil {
				return err
			}

			resp := res.List(cmd.Context(), nil)
			if err := check(resp); err != nil {
				return err
			}
			records, err := resp.Records()
			if err != nil {
				return fmt.Errorf("unexpected list payload: %w", err)
			}
			t, err := v.Build(cfg, q, records, nil)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, v.Snapshot(t))
			}
			t.Render(w)
			summaries := v.Summarize(records)
			for _, s := range v.Summaries {
				fmt.Fprintf(w, "%s: %s\n", s.Label, summaries[s.Label])
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "case-insensitive search term")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value (repeatable)")
	cmd.Flags().IntVarP(&q.Page, "page", "p", 1, "page number")
	cmd.Flags().IntVar(&q.PerPage, "per-page", 0, "items per page (default from view config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")
	return cmd
}

func newGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show a single record",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			_, res, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			resp := res.Get(cmd.Context(), args[1])
			if err := check(resp); err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), resp)
		}),
	}
}

func newActionCmd(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "action <resource> <id> <action>",
		Short: "Run a row action (view, edit, delete or a status action)",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			v, res, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			cfg, err := a.views.LoadConfig(v.Resource)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var out views.Outcome
			confirm := func(prompt string) bool { return yes || askConfirm(cmd, prompt) }

			resp := res.List(ctx, nil)
			if err := check(resp); err != nil {
				return err
			}
			records, err := resp.Records()
			if err != nil {
				return fmt.Errorf("unexpected list payload: %w", err)
			}
			t, err := v.Build(cfg, views.Query{}, records, v.Handler(ctx, res, confirm, &out))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			err = t.DispatchByID(args[2], args[1])
			if errors.Is(err, views.ErrNotConfirmed) {
				fmt.Fprintln(w, "Cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			if err := check(out.Response); err != nil {
				return err
			}
			if out.Path != "" {
				fmt.Fprintf(w, "%s\n", out.Path)
				return printJSON(w, out.Record)
			}
			fmt.Fprintf(w, "%s %s/%s: done\n", args[2], v.Resource, args[1])
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the delete confirmation")
	return cmd
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			v, res, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if !yes {
				rec := model.Record{}
				if got := res.Get(ctx, args[1]); got.Success {
					if r, err := got.Record(); err == nil {
						rec = r
					}
				}
				if !askConfirm(cmd, v.ConfirmDelete(rec)) {
					fmt.Fprintln(w, "Cancelled")
					return nil
				}
			}

			if err := check(res.Delete(ctx, args[1])); err != nil {
				return err
			}
			fmt.Fprintf(w, "Deleted %s/%s\n", v.Resource, args[1])
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newCreateCmd(flags *rootFlags) *cobra.Command {
	var body bodyFlags
	cmd := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create a record from JSON, fields or a multipart form",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			_, res, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			b, err := body.build(cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp := res.Create(cmd.Context(), b)
			if err := check(resp); err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), resp)
		}),
	}
	body.register(cmd)
	return cmd
}

func newUpdateCmd(flags *rootFlags) *cobra.Command {
	var body bodyFlags
	cmd := &cobra.Command{
		Use:   "update <resource> <id>",
		Short: "Update a record from JSON, fields or a multipart form",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			_, res, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			b, err := body.build(cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp := res.Update(cmd.Context(), args[1], b)
			if err := check(resp); err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), resp)
		}),
	}
	body.register(cmd)
	return cmd
}

func newSetStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <resource> <id> <status>",
		Short: "Update the status field of a record",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			v, res, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			if err := check(res.SetStatus(cmd.Context(), args[1], args[2])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s is now %s\n", v.Resource, args[1], args[2])
			return nil
		}),
	}
}

func newProbeCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "probe [path]",
		Short: "Check connectivity to the backend",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			path := "/campaigns/public"
			if len(args) == 1 {
				path = args[0]
			}
			result := a.client.Probe(cmd.Context(), path)

			w := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(w, result); err != nil {
					return err
				}
			} else {
				table := newInfoTable(w, []string{"Field", "Value"})
				table.Append([]string{"URL", result.URL})
				table.Append([]string{"Duration", result.Duration.String()})
				if result.Error != "" {
					table.Append([]string{"Error", result.Error})
					table.Append([]string{"Hint", result.Hint})
				} else {
					table.Append([]string{"Status", fmt.Sprintf("%d %s", result.Status, result.StatusText)})
					table.Append([]string{"Content-Type", result.ContentType})
					table.Append([]string{"Body", format.Truncate(result.Body, 80)})
				}
				table.Render()
			}

			if !result.OK {
				return fmt.Errorf("backend probe failed: %s", result.URL)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the probe result as JSON")
	return cmd
}

func newViewsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Inspect and edit list view settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List views and their settings",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			table := newInfoTable(cmd.OutOrStdout(), []string{"Resource", "Title", "Enabled", "Per Page", "Columns"})
			for _, name := range views.Names() {
				v, _ := views.Lookup(name)
				cfg, err := a.views.LoadConfig(name)
				if err != nil {
					return err
				}
				info := v.Info(cfg)
				columns := make([]string, 0, len(info.Columns))
				for _, c := range info.Columns {
					columns = append(columns, c.Key)
				}
				table.Append([]string{
					info.Resource,
					info.Title,
					fmt.Sprint(info.Enabled),
					fmt.Sprint(info.ItemsPerPage),
					strings.Join(columns, ","),
				})
			}
			table.Render()
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <resource> key=value...",
		Short: "Update view settings (enabled, title, items_per_page, columns=a,b, default_filters.<key>=value)",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			v, _, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			pairs, err := parsePairs(args[1:])
			if err != nil {
				return err
			}

			updates := map[string]interface{}{}
			filters := map[string]interface{}{}
			for k, val := range pairs {
				switch {
				case k == "columns":
					columns := []interface{}{}
					for _, c := range strings.Split(val, ",") {
						if c = strings.TrimSpace(c); c != "" {
							columns = append(columns, c)
						}
					}
					updates[k] = columns
				case k == "title":
					updates[k] = val
				case strings.HasPrefix(k, "default_filters."):
					key := strings.TrimPrefix(k, "default_filters.")
					if !v.HasFilter(key) {
						return fmt.Errorf("view %s has no filter %q", v.Resource, key)
					}
					filters[key] = val
				default:
					updates[k] = parseValue(val)
				}
			}
			if len(filters) > 0 {
				updates["default_filters"] = filters
			}

			if err := a.views.UpdateConfig(v.Resource, updates); err != nil {
				return err
			}
			cfg, _ := a.views.GetConfig(v.Resource)
			return printJSON(cmd.OutOrStdout(), cfg)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <resource>",
		Short: "Restore the default settings of a view",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			v, _, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			if err := a.views.DeleteConfig(v.Resource); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "View %s reset\n", v.Resource)
			return nil
		}),
	})
	return cmd
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			return printJSON(cmd.OutOrStdout(), a.cfg)
		}),
	}
}
