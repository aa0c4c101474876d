package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/api"
	"github.com/alfredjeanlab/ims/internal/guard"
	"github.com/alfredjeanlab/ims/internal/model"
	"github.com/alfredjeanlab/ims/internal/nav"
	"github.com/alfredjeanlab/ims/internal/session"
	"github.com/alfredjeanlab/ims/internal/ui"
)

// shell is an interactive session over the navigation coordinator. Every
// screen is re-resolved against the guard before it is printed, and every
// request error goes through the coordinator first.
type shell struct {
	api     *api.Client
	session *session.Store
	coord   *nav.Coordinator
	prompt  *ui.Prompter
	out     io.Writer
	days    int

	unsubscribe func()
}

func newShell(a *App, in io.Reader, out io.Writer, days int) *shell {
	start := nav.Login
	if a.session.IsAuthenticated() {
		start = nav.Dashboard
	}
	s := &shell{
		api:     a.api,
		session: a.session,
		coord:   nav.NewCoordinator(nav.NewHistory(start), a.guard, a.logger),
		prompt:  ui.NewPrompter(in, out),
		out:     out,
		days:    days,
	}
	s.coord.OnRedirect = s.redirected
	// A deliberate logout leaves nothing to go back to.
	s.unsubscribe = a.session.Subscribe(func(t session.Transition) {
		if t.To == session.Anonymous && !t.Invalidated {
			s.coord.History().Reset(nav.Login)
		}
	})
	return s
}

func (s *shell) close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *shell) redirected(r nav.Redirect) {
	switch r.Reason {
	case nav.ReasonSessionExpired:
		fmt.Fprintln(s.out, ui.RenderWarn("Your session has expired. Please sign in again."))
	case nav.ReasonLoginRequired:
		fmt.Fprintf(s.out, "%s needs a signed-in user.\n", r.From)
	}
}

// run reads commands until exit or end of input.
func (s *shell) run(ctx context.Context) error {
	s.render(ctx, s.coord.Resolve())
	for {
		line, err := s.prompt.Prompt(fmt.Sprintf("ims %s> ", ui.RenderAccent(s.coord.History().Current().String())))
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if quit := s.dispatch(ctx, fields[0], fields[1:]); quit {
			fmt.Fprintln(s.out, "Bye!")
			return nil
		}
	}
}

func (s *shell) dispatch(ctx context.Context, cmd string, args []string) (quit bool) {
	param := ""
	if len(args) > 0 {
		param = args[0]
	}
	switch cmd {
	case "help", "?":
		s.help()
	case "exit", "quit":
		return true
	case "back":
		r, ok := s.coord.Back()
		if !ok {
			fmt.Fprintln(s.out, "nothing to go back to")
			return false
		}
		s.render(ctx, r)
	case "refresh", "r":
		s.render(ctx, s.coord.Resolve())
	case "go":
		if len(args) == 0 || len(args) > 2 {
			fmt.Fprintf(s.out, "usage: go <screen> [id]; screens: %s\n", strings.Join(nav.Names(), ", "))
			return false
		}
		id := ""
		if len(args) == 2 {
			id = args[1]
		}
		s.open(ctx, args[0], id)
	case "dashboard", "products", "categories", "stocks", "profile":
		s.open(ctx, cmd, "")
	case "product", "predict", "predictions":
		if len(args) != 1 {
			fmt.Fprintf(s.out, "usage: %s <id>\n", cmd)
			return false
		}
		screen := cmd
		if cmd == "predict" {
			screen = "predictions"
		}
		s.open(ctx, screen, param)
	case "login":
		s.login(ctx)
	case "logout":
		if err := s.api.Logout(); err != nil {
			s.fail(ctx, err)
		} else {
			fmt.Fprintln(s.out, "logged out")
		}
		s.render(ctx, s.coord.Resolve())
	case "register":
		s.register(ctx)
	case "reset":
		s.reset(ctx, param)
	default:
		fmt.Fprintf(s.out, "unknown command %q; type `help`\n", cmd)
	}
	return false
}

func (s *shell) open(ctx context.Context, name, param string) {
	r, ok := nav.Lookup(name, param)
	if !ok {
		fmt.Fprintf(s.out, "unknown screen %q\n", strings.TrimSpace(name+" "+param))
		return
	}
	s.render(ctx, s.coord.Navigate(r))
}

func (s *shell) help() {
	cmds := [][2]string{
		{"go <screen> [id]", "open a screen (" + strings.Join(nav.Names(), ", ") + ")"},
		{"back", "return to the previous screen"},
		{"refresh", "reload the current screen"},
	}
	if s.session.IsAuthenticated() {
		cmds = append(cmds,
			[2]string{"dashboard | products | categories | stocks | profile", "open that screen"},
			[2]string{"product <id>", "show one product"},
			[2]string{"predict <id>", "show the demand forecast for a product"},
			[2]string{"logout", "sign out"},
		)
	} else {
		cmds = append(cmds,
			[2]string{"login", "sign in"},
			[2]string{"register", "create an account"},
			[2]string{"reset [token]", "request a password reset, or set a new password with a token"},
		)
	}
	cmds = append(cmds, [2]string{"exit", "leave the shell"})
	for _, c := range cmds {
		fmt.Fprintf(s.out, "  %s  %s\n", ui.RenderCommand(c[0]), ui.RenderMuted(c[1]))
	}
}

// render prints r. Callers pass the route the coordinator resolved, so a
// protected screen is never fetched without a session.
func (s *shell) render(ctx context.Context, r guard.Route) {
	var err error
	switch r.Name {
	case nav.Login.Name:
		fmt.Fprintf(s.out, "Not signed in. Type %s, %s or %s.\n",
			ui.RenderCommand("login"), ui.RenderCommand("register"), ui.RenderCommand("reset"))
	case nav.Register.Name:
		fmt.Fprintf(s.out, "Type %s to create an account.\n", ui.RenderCommand("register"))
	case nav.PasswordReset.Name:
		fmt.Fprintf(s.out, "Type %s to request a reset link, or %s to set a new password.\n",
			ui.RenderCommand("reset"), ui.RenderCommand("reset <token>"))
	case nav.Dashboard.Name:
		var d *model.Dashboard
		if d, err = s.api.Dashboard(ctx, s.days); err == nil {
			printDashboard(s.out, s.days, d)
		}
	case nav.Products.Name:
		var ps []*model.Product
		if ps, err = s.api.ListProducts(ctx, api.ProductFilter{}); err == nil {
			printProductTable(s.out, ps)
		}
	case "product":
		var id int64
		if id, err = parseID(r.Param); err == nil {
			var p *model.Product
			if p, err = s.api.GetProduct(ctx, id); err == nil {
				printProduct(s.out, p)
			}
		}
	case nav.Categories.Name:
		var cs []*model.Category
		if cs, err = s.api.ListCategories(ctx); err == nil {
			printCategoryTable(s.out, cs)
		}
	case nav.Stocks.Name:
		var ms []*model.StockMovement
		if ms, err = s.api.ListStocks(ctx); err == nil {
			printStockTable(s.out, ms)
		}
	case nav.Profile.Name:
		var u *model.User
		if u, err = s.api.Profile(ctx); err == nil {
			printUser(s.out, u)
		}
	case "predictions":
		var id int64
		if id, err = parseID(r.Param); err == nil {
			var p *model.Prediction
			if p, err = s.api.Prediction(ctx, id, s.days); err == nil {
				var prod *model.Product
				if prod, err = s.api.GetProduct(ctx, id); err == nil {
					printPrediction(s.out, prod, p)
				}
			}
		}
	default:
		fmt.Fprintf(s.out, "nothing to show for %s\n", r)
	}
	s.fail(ctx, err)
}

// fail reports err unless the coordinator absorbed it, in which case the
// login screen is shown instead.
func (s *shell) fail(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if s.coord.Handle(err) {
		s.render(ctx, s.coord.Resolve())
		return
	}
	fmt.Fprintf(s.out, "%s %s\n", ui.RenderError("error:"), describeError(err))
}

func (s *shell) onAccountScreen() bool {
	switch s.coord.History().Current().Name {
	case nav.Login.Name, nav.Register.Name, nav.PasswordReset.Name:
		return true
	}
	return false
}

func (s *shell) login(ctx context.Context) {
	username, err := s.prompt.Line("Username")
	if err != nil {
		return
	}
	password, err := s.prompt.Password("Password")
	if err != nil {
		return
	}
	if err := s.api.Login(ctx, model.Credentials{Username: username, Password: password}); err != nil {
		fmt.Fprintf(s.out, "%s %s\n", ui.RenderError("error:"), describeError(err))
		return
	}
	fmt.Fprintln(s.out, ui.RenderOK("logged in as "+username))
	if s.onAccountScreen() {
		s.render(ctx, s.coord.Replace(nav.Dashboard))
		return
	}
	s.render(ctx, s.coord.Resolve())
}

func (s *shell) register(ctx context.Context) {
	if s.coord.History().Current() != nav.Register {
		s.coord.Navigate(nav.Register)
	}
	in := &model.Registration{}
	if err := promptRegistration(s.prompt, in); err != nil {
		s.fail(ctx, err)
		return
	}
	u, err := s.api.Register(ctx, in)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	fmt.Fprintf(s.out, "account %s created; type %s to sign in\n", u.Username, ui.RenderCommand("login"))
	s.coord.Replace(nav.Login)
}

func (s *shell) reset(ctx context.Context, token string) {
	if s.coord.History().Current() != nav.PasswordReset {
		s.coord.Navigate(nav.PasswordReset)
	}
	var (
		msg string
		err error
	)
	if token == "" {
		email, perr := s.prompt.Line("Email")
		if perr != nil {
			return
		}
		msg, err = s.api.RequestPasswordReset(ctx, email)
	} else {
		pw, perr := s.prompt.Password("New password")
		if perr != nil {
			return
		}
		msg, err = s.api.ConfirmPasswordReset(ctx, &model.PasswordResetConfirm{Token: token, NewPassword: pw})
	}
	if err != nil {
		s.fail(ctx, err)
		return
	}
	fmt.Fprintln(s.out, msg)
}

var shellCmd = &cobra.Command{
	Use:     "shell",
	Short:   "Browse the inventory interactively",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		s := newShell(app, cmd.InOrStdin(), cmd.OutOrStdout(), days)
		defer s.close()
		return s.run(cmd.Context())
	},
}

func init() {
	shellCmd.Flags().Int("days", 30, "forecast and dashboard window in days")
}
