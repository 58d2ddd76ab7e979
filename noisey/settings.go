package main

import (
	"fmt"
	"slices"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/noisey/pkg/adc"
	"github.com/itohio/noisey/pkg/config"
)

// showSettingsDialog displays the settings dialog. Changes apply on the
// next start.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSourceTab(state),
		createDeviceTab(state),
		createServerTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(480, 360))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(480, 360))
	d.Show()
}

// createSourceTab selects the analog source and its serial port.
func createSourceTab(state *appState) *container.TabItem {
	kindSelect := widget.NewSelect([]string{"mock", "serial", "mic"}, nil)
	kindSelect.SetSelected(state.cfg.Source.Kind)

	portOptions := []string{}
	if ports, err := adc.Ports(); err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}
	if !slices.Contains(portOptions, state.cfg.Source.Port) && state.cfg.Source.Port != "" {
		portOptions = append(portOptions, state.cfg.Source.Port)
	}
	portSelect := widget.NewSelect(portOptions, nil)
	portSelect.SetSelected(state.cfg.Source.Port)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Source", Widget: kindSelect},
			{Text: "Serial Port", Widget: portSelect},
		},
		OnSubmit: func() {
			if kindSelect.Selected != "" {
				state.cfg.Source.Kind = kindSelect.Selected
			}
			if portSelect.Selected != "" {
				state.cfg.Source.Port = portSelect.Selected
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Source", form)
}

// createDeviceTab edits the persisted device settings.
func createDeviceTab(state *appState) *container.TabItem {
	store, err := config.OpenStore(state.cfg.Store.Path)
	if err != nil {
		return container.NewTabItem("Device", widget.NewLabel(err.Error()))
	}
	snap := store.Snapshot()

	offsetEntry := widget.NewEntry()
	offsetEntry.SetText(strconv.Itoa(int(snap.Offset)))
	sensitivityEntry := widget.NewEntry()
	sensitivityEntry.SetText(strconv.Itoa(int(snap.Sensitivity)))
	brightnessEntry := widget.NewEntry()
	brightnessEntry.SetText(strconv.Itoa(int(snap.Brightness)))
	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(strconv.Itoa(int(snap.ReportIntervalMs)))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Offset", Widget: offsetEntry, HintText: limitsHint(config.OffsetLimits)},
			{Text: "Sensitivity", Widget: sensitivityEntry, HintText: limitsHint(config.SensitivityLimits)},
			{Text: "Brightness", Widget: brightnessEntry, HintText: limitsHint(config.BrightnessLimits)},
			{Text: "Report Interval (ms)", Widget: intervalEntry, HintText: limitsHint(config.ReportIntervalLimits)},
		},
		OnSubmit: func() {
			changes := []struct {
				limits config.Limits
				text   string
				write  func(int64) bool
			}{
				{config.OffsetLimits, offsetEntry.Text, func(v int64) bool { return store.WriteOffset(int8(v)) }},
				{config.SensitivityLimits, sensitivityEntry.Text, func(v int64) bool { return store.WriteSensitivity(int8(v)) }},
				{config.BrightnessLimits, brightnessEntry.Text, func(v int64) bool { return store.WriteBrightness(uint8(v)) }},
				{config.ReportIntervalLimits, intervalEntry.Text, func(v int64) bool { return store.WriteReportInterval(int32(v)) }},
			}
			for _, c := range changes {
				v, err := strconv.ParseInt(c.text, 10, 64)
				if err != nil {
					dialog.ShowError(fmt.Errorf("%s: %w", c.limits.Name, err), state.window)
					return
				}
				if err := c.limits.Check(v); err != nil {
					dialog.ShowError(err, state.window)
					return
				}
				c.write(v)
			}
			if err := store.Commit(); err != nil {
				dialog.ShowError(err, state.window)
			}
		},
	}

	return container.NewTabItem("Device", form)
}

// createServerTab edits the collector location and telemetry transport.
func createServerTab(state *appState) *container.TabItem {
	urlEntry := widget.NewEntry()
	urlEntry.SetText(state.cfg.Server.URL)

	transportSelect := widget.NewSelect([]string{"http", "mqtt"}, nil)
	transportSelect.SetSelected(state.cfg.Telemetry.Transport)

	brokerEntry := widget.NewEntry()
	brokerEntry.SetText(state.cfg.Telemetry.MQTT.Broker)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Server URL", Widget: urlEntry},
			{Text: "Transport", Widget: transportSelect},
			{Text: "MQTT Broker", Widget: brokerEntry},
		},
		OnSubmit: func() {
			if urlEntry.Text != "" {
				state.cfg.Server.URL = urlEntry.Text
			}
			if transportSelect.Selected != "" {
				state.cfg.Telemetry.Transport = transportSelect.Selected
			}
			if brokerEntry.Text != "" {
				state.cfg.Telemetry.MQTT.Broker = brokerEntry.Text
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Server", form)
}

func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

func limitsHint(l config.Limits) string {
	return fmt.Sprintf("%d..%d, default %d", l.Min, l.Max, l.Default)
}
