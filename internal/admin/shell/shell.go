package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ieeesou/internal/admin/dashboard"
	"ieeesou/internal/admin/editor"
	"ieeesou/internal/admin/viewer"
	"ieeesou/internal/content/model"
	"ieeesou/pkg/logger"
	"ieeesou/store"
)

type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabEvents    Tab = "events"
	TabAwards    Tab = "awards"
	TabMembers   Tab = "members"
)

var Tabs = []Tab{TabDashboard, TabEvents, TabAwards, TabMembers}

// TabFor is the list tab of kind.
func TabFor(kind model.Kind) Tab { return Tab(kind.Collection()) }

// Kind is the entity kind listed on the tab; the dashboard has none.
func (t Tab) Kind() (model.Kind, bool) {
	if t == TabDashboard {
		return "", false
	}
	k, err := model.ParseKind(string(t))
	return k, err == nil
}

func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// DefaultBannerTTL is how long a banner stays up when nothing replaces it.
const DefaultBannerTTL = 4 * time.Second

// PingTimeout bounds the connectivity check before a delete.
const PingTimeout = 3 * time.Second

const OfflineMessage = "No internet connection."

type Banner struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type Options struct {
	Store     store.Store
	BannerTTL time.Duration
	// Emit receives a snapshot after every state change. It is never called
	// with the shell's lock held.
	Emit func(View)
}

// Shell is the admin surface of one connection: the active tab, the three
// list viewers and editors, the dashboard and the banner.
type Shell struct {
	ctx   context.Context
	store store.Store
	ttl   time.Duration
	emit  func(View)

	emitMu sync.Mutex
	wg     sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	tab         Tab
	viewers     map[model.Kind]*viewer.Viewer
	editors     map[model.Kind]*editor.Editor
	banner      *Banner
	bannerSeq   uint64
	bannerTimer *time.Timer
	dash        *dashboard.Summary
	dashErr     string
	dashLoading bool
	dashSeq     uint64
}

// New starts a shell on the dashboard tab. ctx is the connection's lifetime;
// writes started by the shell run with it.
func New(ctx context.Context, opts Options) *Shell {
	s := &Shell{
		ctx:     ctx,
		store:   opts.Store,
		ttl:     opts.BannerTTL,
		emit:    opts.Emit,
		tab:     TabDashboard,
		viewers: make(map[model.Kind]*viewer.Viewer, len(model.Kinds)),
		editors: make(map[model.Kind]*editor.Editor, len(model.Kinds)),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultBannerTTL
	}
	if s.emit == nil {
		s.emit = func(View) {}
	}
	for _, kind := range model.Kinds {
		s.viewers[kind] = viewer.New(kind, s.store, viewer.Options{
			OnChange: s.render,
			OnError:  func(msg string) { s.notify(editor.NoticeError, msg) },
		})
		s.editors[kind] = editor.New(editor.SchemaFor(kind))
	}
	s.RefreshDashboard()
	return s
}

// Close cancels every subscription and the banner timer. Writes already in
// flight finish on their own.
func (s *Shell) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
	}
	s.mu.Unlock()
	for _, v := range s.viewers {
		v.Unmount()
	}
}

// Wait blocks until background writes and loads have finished.
func (s *Shell) Wait() {
	s.wg.Wait()
}

func (s *Shell) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// SetTab activates tab. The old tab's viewer is unmounted and the new one
// mounted; the dashboard reloads whenever it is shown.
func (s *Shell) SetTab(tab Tab) error {
	if _, err := ParseTab(string(tab)); err != nil {
		return err
	}
	s.mu.Lock()
	s.disarmLocked()
	s.switchLocked(tab)
	s.mu.Unlock()
	if tab == TabDashboard {
		s.RefreshDashboard()
		return nil
	}
	s.render()
	return nil
}

func (s *Shell) switchLocked(tab Tab) {
	if tab == s.tab {
		return
	}
	if k, ok := s.tab.Kind(); ok {
		s.viewers[k].Unmount()
	}
	s.tab = tab
	if k, ok := tab.Kind(); ok {
		s.viewers[k].Mount()
	}
}

func (s *Shell) disarmLocked() {
	if k, ok := s.tab.Kind(); ok {
		s.viewers[k].Disarm()
	}
}

func (s *Shell) viewer(kind model.Kind) (*viewer.Viewer, error) {
	v, ok := s.viewers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	return v, nil
}

// OpenAdd opens kind's editor on a blank form and shows kind's tab.
func (s *Shell) OpenAdd(kind model.Kind) error {
	if _, err := s.viewer(kind); err != nil {
		return err
	}
	s.mu.Lock()
	s.disarmLocked()
	s.switchLocked(TabFor(kind))
	s.editors[kind].Open(nil)
	s.mu.Unlock()
	s.render()
	return nil
}

// Edit opens kind's editor on the document with id.
func (s *Shell) Edit(kind model.Kind, id string) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	doc, ok := v.Document(id)
	if !ok {
		if doc, err = s.store.Get(s.ctx, kind.Collection(), id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.disarmLocked()
	s.switchLocked(TabFor(kind))
	s.editors[kind].Open(&doc)
	s.mu.Unlock()
	s.render()
	return nil
}

// OpenActivity routes a dashboard activity row to its tab with the document
// open in the editor.
func (s *Shell) OpenActivity(kind model.Kind, id string) error {
	s.mu.Lock()
	var doc *store.Document
	if s.dash != nil {
		for _, a := range s.dash.Recent {
			if a.Kind == kind && a.ID == id {
				d := a.Document.Clone()
				doc = &d
				break
			}
		}
	}
	s.mu.Unlock()
	if doc == nil {
		return s.Edit(kind, id)
	}
	if _, err := s.viewer(kind); err != nil {
		return err
	}
	s.mu.Lock()
	s.switchLocked(TabFor(kind))
	s.editors[kind].Open(doc)
	s.mu.Unlock()
	s.render()
	return nil
}

func (s *Shell) CloseModal(kind model.Kind) error {
	if _, err := s.viewer(kind); err != nil {
		return err
	}
	s.mu.Lock()
	s.editors[kind].Close()
	s.mu.Unlock()
	s.render()
	return nil
}

func (s *Shell) SetField(kind model.Kind, key, value string) error {
	if _, err := s.viewer(kind); err != nil {
		return err
	}
	s.mu.Lock()
	err := s.editors[kind].Set(key, value)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.render()
	return nil
}

// Submit validates kind's form and starts the write in the background. The
// form renders busy until the write finishes; a second submit meanwhile
// fails with editor.ErrBusy.
func (s *Shell) Submit(kind model.Kind) error {
	if _, err := s.viewer(kind); err != nil {
		return err
	}
	s.mu.Lock()
	ed := s.editors[kind]
	plan, err := ed.Begin()
	s.mu.Unlock()
	s.render()
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		id, err := plan.Apply(s.ctx, s.store)
		if err != nil {
			logger.Sugar.Errorf("Failed to save %s %s: %v", kind, plan.ID, err)
		} else {
			logger.Sugar.Infof("Saved %s %s", kind, id)
		}
		s.mu.Lock()
		n := ed.Finish(err)
		s.mu.Unlock()
		s.notify(n.Kind, n.Text)
	}()
	return nil
}

// Delete removes a document after checking that the store is reachable.
func (s *Shell) Delete(kind model.Kind, id string) error {
	if _, err := s.viewer(kind); err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, PingTimeout)
		err := s.store.Ping(ctx)
		cancel()
		if err != nil {
			logger.Sugar.Warnf("Store unreachable before delete of %s %s: %v", kind, id, err)
			s.notify(editor.NoticeError, OfflineMessage)
			return
		}
		if err := s.store.Delete(s.ctx, kind.Collection(), id); err != nil {
			logger.Sugar.Errorf("Failed to delete %s %s: %v", kind, id, err)
			s.notify(editor.NoticeError, fmt.Sprintf("Error deleting %s: %s", strings.ToLower(kind.Label()), err.Error()))
			return
		}
		logger.Sugar.Infof("Deleted %s %s", kind, id)
		s.notify(editor.NoticeSuccess, kind.Label()+" deleted successfully.")
	}()
	return nil
}

// ArmDelete is the first click of a delete.
func (s *Shell) ArmDelete(kind model.Kind, id string) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	if !v.Arm(id) {
		return fmt.Errorf("%s %q is not listed", kind, id)
	}
	s.render()
	return nil
}

// ConfirmDelete is the second click: it deletes the armed row, if any.
func (s *Shell) ConfirmDelete(kind model.Kind) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	id, ok := v.Confirm()
	s.render()
	if !ok {
		return nil
	}
	return s.Delete(kind, id)
}

func (s *Shell) CancelDelete(kind model.Kind) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	v.Disarm()
	s.render()
	return nil
}

func (s *Shell) Search(kind model.Kind, q string) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	v.Disarm()
	v.Search(q)
	s.render()
	return nil
}

func (s *Shell) SetFacet(kind model.Kind, facet string) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	if err := v.SetFacet(facet); err != nil {
		return err
	}
	s.render()
	return nil
}

func (s *Shell) SetMode(kind model.Kind, mode string) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	v.Disarm()
	if err := v.SetMode(mode); err != nil {
		return err
	}
	s.render()
	return nil
}

func (s *Shell) Next(kind model.Kind) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	v.Disarm()
	v.Next()
	s.render()
	return nil
}

func (s *Shell) Prev(kind model.Kind) error {
	v, err := s.viewer(kind)
	if err != nil {
		return err
	}
	v.Disarm()
	v.Prev()
	s.render()
	return nil
}

// RefreshDashboard reloads the dashboard summary in the background.
func (s *Shell) RefreshDashboard() {
	s.mu.Lock()
	s.dashLoading = true
	s.dashSeq++
	seq := s.dashSeq
	s.mu.Unlock()
	s.render()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sum, err := dashboard.Load(s.ctx, s.store, time.Now())
		s.mu.Lock()
		if seq != s.dashSeq {
			s.mu.Unlock()
			return
		}
		s.dashLoading = false
		if err != nil {
			logger.Sugar.Errorf("Error loading dashboard data: %v", err)
			s.dashErr = "Error loading dashboard data: " + err.Error()
			s.dash = nil
		} else {
			s.dashErr = ""
			s.dash = &sum
		}
		s.mu.Unlock()
		s.render()
	}()
}

// notify shows a banner, replacing the current one, and schedules its
// removal.
func (s *Shell) notify(kind, text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.bannerSeq++
	seq := s.bannerSeq
	s.banner = &Banner{Kind: kind, Text: text}
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
	}
	s.bannerTimer = time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		if seq != s.bannerSeq {
			s.mu.Unlock()
			return
		}
		s.banner = nil
		s.mu.Unlock()
		s.render()
	})
	s.mu.Unlock()
	s.render()
}
