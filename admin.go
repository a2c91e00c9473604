package notionpub

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/notionpub/synclog"
)

const dashboardRuns = 50

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c)
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Allow(ip) {
		a.Log.Warn("admin login rate limited", zap.String("ip", ip))
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if passwordMatches(a.Config.AdminPassword, pass) {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.Log.Info("admin login failed", zap.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
}

// passwordMatches compares against a bcrypt hash when stored looks like
// one, and against the plain value otherwise.
func passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(stored)) == 1
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// renderAdminDashboard shows the sync journal. The dashboard is read only:
// content changes happen in Notion and arrive with the next revalidation.
func (a *App) renderAdminDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	fetched, _ := a.Cache.Status()
	d := DashboardPage{
		Site:      a.Config,
		FetchedAt: fetched,
		Interval:  a.Config.RevalidateEvery,
		CSRFToken: CsrfToken(c),
	}
	if a.Journal != nil {
		runs, err := a.Journal.ListRuns(ctx, dashboardRuns)
		if err != nil {
			return err
		}
		d.Runs = runs
		last, err := a.Journal.LastSuccess(ctx)
		switch {
		case err == nil:
			d.LastSuccess = &last
		case !errors.Is(err, synclog.ErrNoRuns):
			return err
		}
	}
	return Render(c, a.Views.AdminDashboard(d))
}
