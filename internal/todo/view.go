package todo

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/hitoshi/mindjournal/internal/model"
)

// ViewFilter はタスク画面の表示フィルタ。
type ViewFilter string

const (
	ViewAll       ViewFilter = "all"
	ViewToday     ViewFilter = "today"
	ViewImportant ViewFilter = "important"
	ViewPlanned   ViewFilter = "planned"
	ViewCompleted ViewFilter = "completed"
)

// Valid は定義済みのフィルタかどうかを返す。
func (f ViewFilter) Valid() bool {
	switch f {
	case ViewAll, ViewToday, ViewImportant, ViewPlanned, ViewCompleted:
		return true
	}
	return false
}

// ViewState はタスク画面の表示状態。
// 値として受け渡し、変更は新しいViewStateを返す関数で行う。
type ViewState struct {
	ActiveList string // 空文字は全リスト
	Filter     ViewFilter
	Search     string
}

// SelectList はリストを切り替える。フィルタは全件表示に戻る。
func (s ViewState) SelectList(name string) ViewState {
	s.ActiveList = name
	s.Filter = ViewAll
	return s
}

// SelectFilter は表示フィルタを切り替える。
func (s ViewState) SelectFilter(f ViewFilter) ViewState {
	s.Filter = f
	return s
}

// WithSearch は検索語を設定する。
func (s ViewState) WithSearch(q string) ViewState {
	s.Search = strings.TrimSpace(q)
	return s
}

// ViewCounts はフィルタごと・リストごとの件数。
type ViewCounts struct {
	All       int
	Today     int
	Important int
	Planned   int
	Completed int
	Lists     map[string]int // リストごとの未完了件数
}

// ApplyView は表示状態に従って絞り込み、表示順に並べた新しいスライスを返す。
// 入力のスライスは変更しない。
func ApplyView(todos []*model.Todo, state ViewState, now time.Time) []*model.Todo {
	today := dateKey(now)
	m := newMatcher(state.Search)

	out := make([]*model.Todo, 0, len(todos))
	for _, t := range todos {
		if state.ActiveList != "" && t.ListName != state.ActiveList {
			continue
		}
		if !m.match(t) {
			continue
		}
		if !matchesFilter(t, state.Filter, today) {
			continue
		}
		out = append(out, t)
	}
	SortForDisplay(out)
	return out
}

// SortForDisplay は未完了→優先度(high,medium,low)→作成日時の新しい順に並べ替える。
func SortForDisplay(todos []*model.Todo) {
	slices.SortStableFunc(todos, func(a, b *model.Todo) int {
		if a.IsCompleted != b.IsCompleted {
			if a.IsCompleted {
				return 1
			}
			return -1
		}
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra - rb
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// CountViews は各フィルタとリストの件数を数える。完了済み以外は未完了のみを数える。
func CountViews(todos []*model.Todo, now time.Time) ViewCounts {
	today := dateKey(now)
	c := ViewCounts{Lists: map[string]int{}}
	for _, t := range todos {
		if t.IsCompleted {
			c.Completed++
			continue
		}
		c.All++
		c.Lists[t.ListName]++
		if isDueOn(t, today) {
			c.Today++
		}
		if t.Priority == model.PriorityHigh {
			c.Important++
		}
		if isPlanned(t) {
			c.Planned++
		}
	}
	return c
}

func matchesFilter(t *model.Todo, f ViewFilter, today string) bool {
	switch f {
	case ViewToday:
		return isDueOn(t, today)
	case ViewImportant:
		return t.Priority == model.PriorityHigh
	case ViewPlanned:
		return isPlanned(t)
	case ViewCompleted:
		return t.IsCompleted
	default:
		return !t.IsCompleted
	}
}

func isDueOn(t *model.Todo, day string) bool {
	if t.DueDate != nil && *t.DueDate == day {
		return true
	}
	return t.ReminderDate != nil && dateKey(*t.ReminderDate) == day
}

func isPlanned(t *model.Todo) bool {
	return t.DueDate != nil || t.ReminderDate != nil
}

func dateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// matcher は大文字小文字を区別しない部分一致で検索する。
type matcher struct {
	fold  cases.Caser
	query string
}

func newMatcher(q string) *matcher {
	m := &matcher{fold: cases.Fold()}
	if q != "" {
		m.query = m.fold.String(q)
	}
	return m
}

func (m *matcher) match(t *model.Todo) bool {
	if m.query == "" {
		return true
	}
	if m.contains(t.Title) {
		return true
	}
	if t.Description != nil && m.contains(*t.Description) {
		return true
	}
	return t.Notes != nil && m.contains(*t.Notes)
}

func (m *matcher) contains(s string) bool {
	return strings.Contains(m.fold.String(s), m.query)
}
