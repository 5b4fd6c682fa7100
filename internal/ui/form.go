package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/KaliDrag0n/ContentReaper/internal/api"
	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldInt
	fieldBool
	fieldSelect
)

type formField struct {
	Key      string
	Label    string
	Help     string
	Kind     fieldKind
	Value    string
	Options  []string
	Required bool
}

type enqueueForm struct {
	Fields []formField
	Index  int
	Input  textinput.Model
	Error  string
}

func newEnqueueForm(width int) *enqueueForm {
	f := &enqueueForm{
		Fields: []formField{
			{Key: "urls", Label: "URLs", Help: "One or more URLs separated by spaces", Kind: fieldString, Required: true},
			{Key: "mode", Label: "Mode", Help: "Download profile", Kind: fieldSelect, Value: string(model.ModeMusic), Options: []string{string(model.ModeMusic), string(model.ModeVideo), string(model.ModeClip), string(model.ModeCustom)}},
			{Key: "folder", Label: "Folder", Help: "Optional subfolder under the backend's download root", Kind: fieldString},
			{Key: "quality", Label: "Quality", Help: "Video quality cap; ignored for music", Kind: fieldSelect, Value: "best", Options: []string{"best", "1080", "720", "480"}},
			{Key: "archive", Label: "Use Archive", Help: "Skip URLs the backend has already downloaded", Kind: fieldBool, Value: "y"},
			{Key: "embed_subs", Label: "Embed Subtitles", Kind: fieldBool, Value: "n"},
			{Key: "split_chapters", Label: "Split Chapters", Kind: fieldBool, Value: "n"},
			{Key: "playlist_start", Label: "Playlist Start", Help: "0 means from the beginning", Kind: fieldInt, Value: "0"},
			{Key: "playlist_end", Label: "Playlist End", Help: "0 means to the end", Kind: fieldInt, Value: "0"},
		},
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 2048
	input.Width = clampInt(width-8, 20, 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
	return f
}

func (f *enqueueForm) currentField() formField {
	if len(f.Fields) == 0 {
		return formField{}
	}
	if f.Index < 0 {
		f.Index = 0
	}
	if f.Index >= len(f.Fields) {
		f.Index = len(f.Fields) - 1
	}
	return f.Fields[f.Index]
}

func (f *enqueueForm) commitInput() {
	if len(f.Fields) == 0 {
		return
	}
	f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
}

func (f *enqueueForm) loadFieldIntoInput() {
	if len(f.Fields) == 0 {
		return
	}
	f.Input.SetValue(f.Fields[f.Index].Value)
	f.Input.CursorEnd()
}

func (f *enqueueForm) setBool(v bool) {
	curr := f.Fields[f.Index]
	if curr.Kind != fieldBool {
		return
	}
	curr.Value = boolToYN(v)
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

func (f *enqueueForm) toggleBool() {
	v, _ := parseYN(f.Fields[f.Index].Value)
	f.setBool(!v)
}

func (f *enqueueForm) cycleSelect(step int) {
	curr := f.Fields[f.Index]
	if curr.Kind != fieldSelect || len(curr.Options) == 0 {
		return
	}
	pos := 0
	for i, opt := range curr.Options {
		if strings.EqualFold(opt, strings.TrimSpace(curr.Value)) {
			pos = i
			break
		}
	}
	pos = (pos + step + len(curr.Options)) % len(curr.Options)
	curr.Value = curr.Options[pos]
	f.Fields[f.Index] = curr
	f.loadFieldIntoInput()
}

// toRequest validates the form into an enqueue payload.
func (f *enqueueForm) toRequest() (api.EnqueueRequest, error) {
	vals := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		v := strings.TrimSpace(field.Value)
		if field.Required && v == "" {
			return api.EnqueueRequest{}, fmt.Errorf("%s is required", strings.ToLower(field.Label))
		}
		switch field.Kind {
		case fieldInt:
			if v == "" {
				v = "0"
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return api.EnqueueRequest{}, fmt.Errorf("%s must be an integer >= 0", strings.ToLower(field.Label))
			}
		case fieldBool:
			if _, ok := parseYN(v); !ok {
				return api.EnqueueRequest{}, fmt.Errorf("%s must be y or n", strings.ToLower(field.Label))
			}
		}
		vals[field.Key] = v
	}

	urls := strings.Fields(vals["urls"])
	archive, _ := parseYN(vals["archive"])
	embedSubs, _ := parseYN(vals["embed_subs"])
	splitChapters, _ := parseYN(vals["split_chapters"])

	template := model.JobTemplate{
		Mode:          model.DownloadMode(vals["mode"]),
		Folder:        vals["folder"],
		Quality:       vals["quality"],
		Archive:       archive,
		EmbedSubs:     embedSubs,
		SplitChapters: splitChapters,
	}
	if n, _ := strconv.Atoi(vals["playlist_start"]); n > 0 {
		template.PlaylistStart = &n
	}
	if n, _ := strconv.Atoi(vals["playlist_end"]); n > 0 {
		template.PlaylistEnd = &n
	}

	return api.EnqueueRequest{URLs: urls, Job: template}, nil
}

func (m Model) updateEnqueue(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeDashboard
		return m, nil
	}

	key := msg.String()
	switch key {
	case "ctrl+c", "esc":
		m.mode = modeDashboard
		m.form = nil
		m.statusMessage = "add cancelled"
		return m, nil

	case "up", "shift+tab":
		m.form.commitInput()
		if m.form.Index > 0 {
			m.form.Index--
		}
		m.form.loadFieldIntoInput()
		return m, nil

	case "down", "tab":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 {
			m.form.Index++
		}
		m.form.loadFieldIntoInput()
		return m, nil

	case " ", "space":
		switch m.form.currentField().Kind {
		case fieldBool:
			m.form.toggleBool()
			return m, nil
		case fieldSelect:
			m.form.cycleSelect(1)
			return m, nil
		}

	case "left":
		switch m.form.currentField().Kind {
		case fieldBool:
			m.form.toggleBool()
			return m, nil
		case fieldSelect:
			m.form.cycleSelect(-1)
			return m, nil
		}

	case "right":
		switch m.form.currentField().Kind {
		case fieldBool:
			m.form.toggleBool()
			return m, nil
		case fieldSelect:
			m.form.cycleSelect(1)
			return m, nil
		}

	case "y":
		if m.form.currentField().Kind == fieldBool {
			m.form.setBool(true)
			return m, nil
		}

	case "n":
		if m.form.currentField().Kind == fieldBool {
			m.form.setBool(false)
			return m, nil
		}

	case "enter", "ctrl+s":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 && key != "ctrl+s" {
			m.form.Index++
			m.form.loadFieldIntoInput()
			return m, nil
		}
		req, err := m.form.toRequest()
		if err != nil {
			m.form.Error = err.Error()
			return m, nil
		}
		m.deps.Actions.Enqueue(context.Background(), req)
		m.mode = modeDashboard
		m.form = nil
		return m, nil
	}

	kind := m.form.currentField().Kind
	if kind == fieldBool || kind == fieldSelect {
		return m, nil
	}
	var cmd tea.Cmd
	m.form.Input, cmd = m.form.Input.Update(msg)
	m.form.Fields[m.form.Index].Value = m.form.Input.Value()
	return m, cmd
}

func parseYN(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "true", "1":
		return true, true
	case "n", "no", "false", "0", "":
		return false, true
	}
	return false, false
}

func boolToYN(v bool) string {
	if v {
		return "y"
	}
	return "n"
}
