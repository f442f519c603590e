package presentation

import (
	"fmt"
	"html"
	"strings"
	"time"

	"url-upload-bot/internal/health"
	"url-upload-bot/internal/history"
	"url-upload-bot/internal/progress"
)

const DocumentCaption = "Here's your file! 📁"

func GenericErrorMsg() string {
	return "<b>❌ Something went wrong, please try again later</b>"
}

func WelcomeMsg(firstName string) string {
	var sb strings.Builder
	if firstName != "" {
		sb.WriteString(fmt.Sprintf("<b>Hi %s! 👋</b>", html.EscapeString(firstName)))
	} else {
		sb.WriteString("<b>Hi! 👋</b>")
	}
	sb.WriteString(breakLine(2))
	sb.WriteString("I'm URL Downloader Bot. Send me any direct link and I'll upload it to Telegram!")
	return sb.String()
}

func HelpMsg(maxSize int64) string {
	var sb strings.Builder
	sb.WriteString("<b>❓ Send me a direct http:// or https:// link to a file</b>")
	sb.WriteString(breakLine(2))
	sb.WriteString("I will offer to keep the original name or rename the file, download it and send it back as a document.")
	sb.WriteString(breakLine(2))
	sb.WriteString(fmt.Sprintf("<b>📦 Maximum file size: %s</b>", progress.FormatSize(float64(maxSize))))
	sb.WriteString(breakLine(2))
	sb.WriteString("<b>⚙️ Available commands:</b>")
	sb.WriteString(breakLine(1))
	sb.WriteString("/start — greeting")
	sb.WriteString(breakLine(1))
	sb.WriteString("/help — this message")
	sb.WriteString(breakLine(1))
	sb.WriteString("/health — bot status")
	sb.WriteString(breakLine(1))
	sb.WriteString("/history — your recent files")
	return sb.String()
}

func InvalidURLMsg() string {
	return "Please send a valid direct download URL."
}

func ChoiceMsg(filename string, declaredSize int64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>📄 Name:</b> %s", html.EscapeString(filename)))
	if declaredSize > 0 {
		sb.WriteString(breakLine(1))
		sb.WriteString(fmt.Sprintf("<b>📦 Size:</b> %s", progress.FormatSize(float64(declaredSize))))
	}
	sb.WriteString(breakLine(1))
	sb.WriteString("How would you like to upload this?")
	return sb.String()
}

func AskNewNameMsg(current string) string {
	return fmt.Sprintf("<b>✏️ Current name:</b> %s\nSend me the new name for this file:", html.EscapeString(current))
}

func EmptyNameMsg() string {
	return "<b>⚠️ That name has no usable characters.</b> Send me another one:"
}

func SessionExpiredMsg() string {
	return "Session expired. Please send the URL again."
}

func TransferInProgressMsg() string {
	return "<b>⏳ A transfer is already in progress in this chat, please wait for it to finish</b>"
}

func StartingDownloadMsg() string {
	return "⏳ Starting download..."
}

func StartingUploadMsg() string {
	return "📤 Starting upload to Telegram..."
}

func ProgressMsg(filename string, direction progress.Direction, sample progress.Sample) string {
	return fmt.Sprintf("<b>%s</b>\n\n<pre>%s</pre>", html.EscapeString(filename), progress.Render(direction, sample))
}

func HealthMsg(report health.Report, sessions int) string {
	var sb strings.Builder
	if report.Healthy() {
		sb.WriteString("<b>🟢 Bot is running</b>")
	} else {
		sb.WriteString("<b>🟡 Bot is running with problems</b>")
	}
	sb.WriteString(breakLine(2))
	sb.WriteString(fmt.Sprintf("⏱ Uptime: %s", report.Uptime))
	sb.WriteString(breakLine(1))
	sb.WriteString(fmt.Sprintf("🧠 Memory: %s", progress.FormatSize(float64(report.RSS))))
	sb.WriteString(breakLine(1))
	sb.WriteString(fmt.Sprintf("🧵 Goroutines: %d", report.NumGoroutines))
	sb.WriteString(breakLine(1))
	sb.WriteString(fmt.Sprintf("📂 Files in download dir: %d", report.PendingFiles))
	sb.WriteString(breakLine(1))
	sb.WriteString(fmt.Sprintf("🔄 Active transfers: %d", report.ActiveTransfers))
	sb.WriteString(breakLine(1))
	sb.WriteString(fmt.Sprintf("💬 Open sessions: %d", sessions))
	for _, err := range report.Errors {
		sb.WriteString(breakLine(1))
		sb.WriteString(fmt.Sprintf("⚠️ %s", html.EscapeString(err.Error())))
	}
	return sb.String()
}

func HistoryMsg(transfers []history.Transfer) string {
	if len(transfers) == 0 {
		return "<b>🔍 You haven't received any files yet</b>"
	}
	var sb strings.Builder
	sb.WriteString("<b>🗂 Your recent files:</b>")
	for _, t := range transfers {
		sb.WriteString(breakLine(1))
		sb.WriteString(fmt.Sprintf("%s — %s, %s",
			t.CreatedAt.Format(time.DateOnly),
			html.EscapeString(t.Filename),
			progress.FormatSize(float64(t.Size)),
		))
	}
	return sb.String()
}

func HistoryUnavailableMsg() string {
	return "<b>❌ Could not load your history, please try again later</b>"
}

func breakLine(n int) string {
	return strings.Repeat("\n", n)
}
