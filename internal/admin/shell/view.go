package shell

import (
	"ieeesou/internal/admin/dashboard"
	"ieeesou/internal/admin/editor"
	"ieeesou/internal/admin/viewer"
)

type DashboardView struct {
	Loading bool               `json:"loading"`
	Error   string             `json:"error,omitempty"`
	Summary *dashboard.Summary `json:"summary,omitempty"`
}

// View is a full render snapshot of the admin surface.
type View struct {
	Tab       Tab            `json:"tab"`
	Tabs      []Tab          `json:"tabs"`
	Banner    *Banner        `json:"banner,omitempty"`
	Dashboard *DashboardView `json:"dashboard,omitempty"`
	List      *viewer.View   `json:"list,omitempty"`
	Editor    *editor.View   `json:"editor,omitempty"`
}

func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Shell) viewLocked() View {
	v := View{Tab: s.tab, Tabs: Tabs}
	if s.banner != nil {
		b := *s.banner
		v.Banner = &b
	}
	kind, ok := s.tab.Kind()
	if !ok {
		v.Dashboard = &DashboardView{Loading: s.dashLoading, Error: s.dashErr, Summary: s.dash}
		return v
	}
	list := s.viewers[kind].View()
	v.List = &list
	if ed := s.editors[kind]; ed.IsOpen() {
		ev := ed.View()
		v.Editor = &ev
	}
	return v
}

// render emits the current snapshot. emitMu keeps snapshots in the order
// they were taken.
func (s *Shell) render() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	v := s.viewLocked()
	s.mu.Unlock()
	s.emit(v)
}
