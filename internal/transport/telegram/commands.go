package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "dronewatch/pkg/logx"

	"dronewatch/internal/alert"
	"dronewatch/internal/core"
)

const (
	commandTimeout = 15 * time.Second
	// A broadcast to a large subscriber set runs at the pacing interval,
	// so the submit commands get a much wider budget.
	submitTimeout = 10 * time.Minute
)

const welcomeText = `🚨 *Drone hazard alert system*

You are subscribed to drone activity notifications.

*Commands:*
/start - subscribe
/stop - unsubscribe
/status - system status
/alerts - recent alerts
/help - help

Stay alert and follow safety instructions.`

const stopText = `✅ You are unsubscribed from drone hazard notifications.

Use /start to subscribe again.`

const helpText = `🆘 *Help*

/start - subscribe to notifications
/stop - unsubscribe
/status - system status
/alerts - recent alerts
/help - this message

*When you receive an alert:*
1. Proceed to shelter immediately
2. Warn people around you
3. Follow instructions from local authorities

*Emergency numbers:* 112`

// RegisterCommands installs the presentation handlers. They stay thin: parse,
// call the core service, format the reply.
func (a *Adapter) RegisterCommands(baseCtx context.Context, svc *core.Service) {
	reply := func(c tele.Context, text string) error {
		return c.Send(text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, DisableWebPagePreview: true})
	}

	a.bot.Handle("/start", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(baseCtx, commandTimeout)
		defer cancel()
		err := svc.Subscribe(ctx, core.SubscribeRequest{
			UserID:      c.Sender().ID,
			ChatID:      c.Chat().ID,
			DisplayName: displayName(c.Sender()),
		})
		if err != nil {
			a.log.Error("subscribe failed", logx.Int64("user_id", c.Sender().ID), logx.Err(err))
			return reply(c, "⚠️ Subscription failed, please try again later.")
		}
		return reply(c, welcomeText)
	})

	a.bot.Handle("/stop", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(baseCtx, commandTimeout)
		defer cancel()
		if err := svc.Unsubscribe(ctx, c.Sender().ID); err != nil {
			a.log.Error("unsubscribe failed", logx.Int64("user_id", c.Sender().ID), logx.Err(err))
			return reply(c, "⚠️ Could not unsubscribe, please try again later.")
		}
		return reply(c, stopText)
	})

	a.bot.Handle("/status", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(baseCtx, commandTimeout)
		defer cancel()
		st, err := svc.Status(ctx)
		if err != nil {
			a.log.Error("status failed", logx.Err(err))
			return reply(c, "⚠️ Status is unavailable right now.")
		}
		return reply(c, fmt.Sprintf(
			"📊 *System status*\n\n- 👥 Subscribers: %d\n- ⏱ Uptime: %s\n- 🟢 Operating normally",
			st.ActiveSubscribers, st.Uptime.Round(time.Second)))
	})

	a.bot.Handle("/alerts", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(baseCtx, commandTimeout)
		defer cancel()
		alerts, err := svc.RecentAlerts(ctx, 0)
		if err != nil {
			a.log.Error("recent alerts failed", logx.Err(err))
			return reply(c, "⚠️ Alert history is unavailable right now.")
		}
		if len(alerts) == 0 {
			return reply(c, "📭 No recent alerts")
		}
		var b strings.Builder
		b.WriteString("📋 *Recent alerts:*\n\n")
		for _, al := range alerts {
			b.WriteString(alert.RenderHistoryEntry(al))
			b.WriteString("\n")
		}
		return reply(c, b.String())
	})

	a.bot.Handle("/help", func(c tele.Context) error {
		return reply(c, helpText)
	})

	a.bot.Handle("/alert", func(c tele.Context) error {
		if !a.isOwner(c.Sender().ID) {
			return reply(c, "⛔ This command is restricted to operators.")
		}
		req, err := parseAlertArgs(c.Message().Payload)
		if err != nil {
			return reply(c, "Usage: /alert <severity> <location> ; <description>")
		}
		ctx, cancel := context.WithTimeout(baseCtx, submitTimeout)
		defer cancel()
		res, err := svc.SubmitAlert(ctx, req)
		if err != nil {
			a.log.Error("operator alert failed", logx.Err(err))
			return reply(c, "⚠️ Alert could not be recorded.")
		}
		return reply(c, fmt.Sprintf("✅ Alert #%d delivered to %d of %d subscribers",
			res.AlertID, res.Succeeded, res.Attempted))
	})

	a.bot.Handle("/test_alert", func(c tele.Context) error {
		if !a.isOwner(c.Sender().ID) {
			return reply(c, "⛔ This command is restricted to operators.")
		}
		ctx, cancel := context.WithTimeout(baseCtx, submitTimeout)
		defer cancel()
		res, err := svc.SubmitAlert(ctx, core.SubmitAlertRequest{
			Type:        "TEST: Drone sighting",
			Location:    "Test range",
			Description: "System check. This is a test message.",
			Severity:    "low",
		})
		if err != nil {
			a.log.Error("test alert failed", logx.Err(err))
			return reply(c, "⚠️ Test alert could not be recorded.")
		}
		return reply(c, fmt.Sprintf("✅ Test alert sent to %d subscribers", res.Succeeded))
	})
}

func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// parseAlertArgs splits "<severity> <location> ; <description>".
// The severity token is passed through raw; the engine normalizes it.
func parseAlertArgs(payload string) (core.SubmitAlertRequest, error) {
	payload = strings.TrimSpace(payload)
	head, desc, _ := strings.Cut(payload, ";")
	sev, loc, ok := strings.Cut(strings.TrimSpace(head), " ")
	if !ok || strings.TrimSpace(loc) == "" {
		return core.SubmitAlertRequest{}, fmt.Errorf("malformed alert command: %q", payload)
	}
	desc = strings.TrimSpace(desc)
	if desc == "" {
		desc = "No details provided."
	}
	return core.SubmitAlertRequest{
		Type:        "Operator alert",
		Location:    strings.TrimSpace(loc),
		Description: desc,
		Severity:    strings.TrimSpace(sev),
	}, nil
}
