// Package gui is the staff-facing desktop window: sign-in, mode choice and
// the recap screen that drives merge runs, chart workbooks and report mail.
package gui

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"fwat/aggregate"
	"fwat/charts"
	"fwat/internal/config"
	"fwat/mailer"
	"fwat/server/services"
	"fwat/store"
)

const appTitle = "FWAT - Food Waste Analysis Tool"

// Category options shown in the recap dropdown. "counters" is the
// per-counter recap; the rest are member-attribute series.
var categoryOptions = []string{
	"counters",
	string(aggregate.AttrHouse),
	string(aggregate.AttrYearGroup),
	string(aggregate.AttrFormClass),
	string(aggregate.AttrStaffStudent),
}

// Window is the application window. Screens replace each other in the same
// window: sign-in, mode choice, real-time, recap.
type Window struct {
	cfg    *config.Config
	svc    *services.ReportService
	mailer *mailer.Mailer

	app fyne.App
	win fyne.Window

	presets []Preset
	plots   []string // pending plot selections for the next workbook
}

// NewWindow builds the window. The mailer may be nil when SMTP is not
// configured; the Send Mail button then reports that.
func NewWindow(cfg *config.Config, svc *services.ReportService, m *mailer.Mailer) *Window {
	a := app.New()
	w := &Window{
		cfg:    cfg,
		svc:    svc,
		mailer: m,
		app:    a,
		win:    a.NewWindow(appTitle),
	}

	presets, err := LoadPresets(cfg.DataDir)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	w.presets = presets

	w.win.Resize(fyne.NewSize(640, 480))
	return w
}

// ShowAndRun opens the sign-in screen and runs the event loop. It blocks
// until the window closes.
func (w *Window) ShowAndRun() {
	w.showSignIn()
	w.win.ShowAndRun()
}

func (w *Window) banner() fyne.CanvasObject {
	title := widget.NewLabel(appTitle)
	title.TextStyle = fyne.TextStyle{Italic: true}
	return container.NewVBox(title, widget.NewSeparator())
}

func (w *Window) showSignIn() {
	username := widget.NewEntry()
	username.SetPlaceHolder("Username")
	password := widget.NewPasswordEntry()
	password.SetPlaceHolder("Password")

	login := widget.NewButton("Login", func() {
		if username.Text == w.cfg.GUIUsername && password.Text == w.cfg.GUIPassword {
			w.showModeChoice()
			return
		}
		dialog.ShowError(fmt.Errorf("invalid username or password"), w.win)
	})

	form := container.NewVBox(
		w.banner(),
		widget.NewLabel("Sign In"),
		username,
		password,
		login,
	)
	w.win.SetContent(form)
}

func (w *Window) showModeChoice() {
	signOut := widget.NewButton("Sign Out", w.showSignIn)
	realTime := widget.NewButton("Real Time", w.showRealTime)
	recap := widget.NewButton("Recap", w.showRecap)

	w.win.SetContent(container.NewVBox(
		w.banner(),
		signOut,
		realTime,
		recap,
	))
}

func (w *Window) showRealTime() {
	back := widget.NewButton("Back", w.showModeChoice)
	stats := w.svc.LastStats()
	status := "No merge run has completed yet."
	if stats != nil {
		status = stats.Summary()
	}

	w.win.SetContent(container.NewVBox(
		w.banner(),
		back,
		widget.NewLabel("Latest merge run:"),
		widget.NewLabel(status),
	))
}

func (w *Window) showRecap() {
	today := time.Now().Format(store.DayLayout)

	startEntry := widget.NewEntry()
	startEntry.SetText(today)
	endEntry := widget.NewEntry()
	endEntry.SetText(today)

	categorySelect := widget.NewSelect(categoryOptions, nil)
	categorySelect.SetSelected(categoryOptions[0])

	presetSelect := widget.NewSelect(w.presetNames(), func(name string) {
		for _, p := range w.presets {
			if p.Name == name {
				startEntry.SetText(p.Start)
				endEntry.SetText(p.End)
				categorySelect.SetSelected(p.Category)
				return
			}
		}
	})
	presetSelect.PlaceHolder = "Presets"

	savePreset := widget.NewButton("Save Preset", func() {
		w.savePreset(startEntry.Text, endEntry.Text, categorySelect.Selected, presetSelect)
	})

	plotList := widget.NewLabel(w.plotSummary())

	regenerate := widget.NewButton("Regenerate Data", func() {
		w.regenerate(startEntry.Text, endEntry.Text)
	})
	addPlot := widget.NewButton("Add Plot", func() {
		w.plots = append(w.plots, categorySelect.Selected)
		plotList.SetText(w.plotSummary())
	})
	removePlot := widget.NewButton("Remove Plot", func() {
		if len(w.plots) > 0 {
			w.plots = w.plots[:len(w.plots)-1]
		}
		plotList.SetText(w.plotSummary())
	})
	sendMail := widget.NewButton("Send Mail", func() {
		w.sendMail(startEntry.Text, endEntry.Text)
	})

	back := widget.NewButton("Back", w.showModeChoice)

	w.win.SetContent(container.NewVBox(
		w.banner(),
		back,
		container.NewGridWithColumns(2, presetSelect, savePreset),
		container.NewGridWithColumns(3, categorySelect, startEntry, endEntry),
		plotList,
		container.NewGridWithColumns(2, regenerate, addPlot),
		container.NewGridWithColumns(2, removePlot, sendMail),
	))
}

func (w *Window) presetNames() []string {
	names := make([]string, 0, len(w.presets))
	for _, p := range w.presets {
		names = append(names, p.Name)
	}
	return names
}

func (w *Window) plotSummary() string {
	if len(w.plots) == 0 {
		return "No plots queued."
	}
	return fmt.Sprintf("Queued plots: %v", w.plots)
}

func (w *Window) savePreset(start, end, category string, presetSelect *widget.Select) {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Preset name")
	dialog.ShowForm("Save Preset", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			if !ok || entry.Text == "" {
				return
			}
			w.presets = append(w.presets, Preset{
				Name:     entry.Text,
				Start:    start,
				End:      end,
				Category: category,
			})
			if err := SavePresets(w.cfg.DataDir, w.presets); err != nil {
				dialog.ShowError(err, w.win)
				return
			}
			presetSelect.Options = w.presetNames()
			presetSelect.Refresh()
		}, w.win)
}

// regenerate runs the merge off the UI goroutine and reports the summary.
func (w *Window) regenerate(start, end string) {
	progress := dialog.NewCustomWithoutButtons("Regenerating",
		widget.NewLabel("Merging station and weight data..."), w.win)
	progress.Show()

	go func() {
		stats, err := w.svc.RunMerge(context.Background(), start, end)
		fyne.Do(func() {
			progress.Hide()
			if err != nil {
				dialog.ShowError(err, w.win)
				return
			}
			dialog.ShowInformation("Merge complete", stats.Summary(), w.win)
		})
	}()
}

// buildWorkbook renders the queued plots for the range into one workbook.
func (w *Window) buildWorkbook(start, end string) (string, error) {
	if len(w.plots) == 0 {
		return "", fmt.Errorf("no plots queued, use Add Plot first")
	}
	r, err := aggregate.NewRange(start, end)
	if err != nil {
		return "", err
	}
	data, err := w.svc.LoadStore()
	if err != nil {
		return "", err
	}

	wb := charts.NewWorkbook()
	defer wb.Close()

	seen := make(map[string]bool)
	for _, plot := range w.plots {
		if seen[plot] {
			continue
		}
		seen[plot] = true

		if plot == "counters" {
			if err := wb.AddCounterRecap(data, r); err != nil {
				return "", err
			}
			continue
		}
		if err := wb.AddCategoryRecap(data, r, aggregate.Attribute(plot),
			w.svc.YearGroups()); err != nil {
			return "", err
		}
	}

	path := filepath.Join(w.cfg.DataDir, fmt.Sprintf("recap-%s-%s.xlsx", start, end))
	if err := wb.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Window) sendMail(start, end string) {
	if w.mailer == nil {
		dialog.ShowError(fmt.Errorf("SMTP is not configured"), w.win)
		return
	}

	go func() {
		path, err := w.buildWorkbook(start, end)
		if err == nil {
			subject := fmt.Sprintf("Food waste recap %s to %s", start, end)
			body := fmt.Sprintf("Attached: food waste recap charts for %s to %s.", start, end)
			err = w.mailer.SendReport(w.cfg.MailTo, subject, body, path)
		}
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, w.win)
				return
			}
			dialog.ShowInformation("Mail sent",
				fmt.Sprintf("Recap sent to %v", w.cfg.MailTo), w.win)
		})
	}()
}
