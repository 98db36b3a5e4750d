// Package timeline は回答と練習記録をまとめた履歴ビューとエクスポートを提供する。
package timeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hitoshi/mindjournal/internal/journal"
	"github.com/hitoshi/mindjournal/internal/model"
)

// AnswerSource は回答一覧の取得元。
type AnswerSource interface {
	ListAnswers(ctx context.Context, userID string, filter model.AnswerFilter) ([]*model.Answer, error)
}

// PracticeSource は練習記録の取得元。
type PracticeSource interface {
	ListAllPractices(ctx context.Context, userID string) ([]*model.Practice, error)
}

// EntryKind は履歴エントリの種類。
type EntryKind string

const (
	KindAnswer   EntryKind = "answer"
	KindPractice EntryKind = "practice"
)

// Entry は履歴の1件。AnswerとPracticeのどちらか一方のみが設定される。
type Entry struct {
	Kind     EntryKind
	At       time.Time
	Answer   *model.Answer
	Practice *model.Practice
}

// Query は履歴の絞り込み条件。種別は回答にのみ適用され、練習記録は常に含まれる。
type Query struct {
	Type   model.AnswerType // 空文字または"all"で全種別
	Search string
}

// Feed は絞り込み済みの履歴。
type Feed struct {
	Entries   []Entry
	Answers   []*model.Answer
	Practices []*model.Practice
}

// Snapshot はエクスポート時点の履歴。
type Snapshot struct {
	Answers    []*model.Answer
	Practices  []*model.Practice
	ExportedAt time.Time
}

// Service は履歴ビューのサービス層。
type Service struct {
	answers   AnswerSource
	practices PracticeSource
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(answers AnswerSource, practices PracticeSource) *Service {
	return &Service{answers: answers, practices: practices, now: time.Now}
}

// BuildFeed は回答と練習記録を新しい順にまとめた履歴を返す。
// 検索語は回答の取得時に適用する。該当がなくてもエラーにはしない。
func (s *Service) BuildFeed(ctx context.Context, userID string, q Query) (*Feed, error) {
	answers, err := s.answers.ListAnswers(ctx, userID, model.AnswerFilter{
		Type:   q.Type,
		Search: q.Search,
		Limit:  journal.MaxListLimit,
	})
	if err != nil {
		return nil, err
	}
	practices, err := s.practices.ListAllPractices(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Feed{
		Entries:   Merge(answers, practices),
		Answers:   answers,
		Practices: practices,
	}, nil
}

// Export は現在の絞り込み結果と全練習記録、エクスポート時刻をまとめる。
func (s *Service) Export(ctx context.Context, userID string, q Query) (*Snapshot, error) {
	feed, err := s.BuildFeed(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("エクスポートに失敗しました: %w", err)
	}
	return &Snapshot{
		Answers:    feed.Answers,
		Practices:  feed.Practices,
		ExportedAt: s.now().UTC(),
	}, nil
}

// Merge は回答(作成日時)と練習記録(完了日時)を新しい順に並べる。
// 同時刻の場合は回答を先にする。
func Merge(answers []*model.Answer, practices []*model.Practice) []Entry {
	entries := make([]Entry, 0, len(answers)+len(practices))
	for _, a := range answers {
		entries = append(entries, Entry{Kind: KindAnswer, At: a.CreatedAt, Answer: a})
	}
	for _, p := range practices {
		entries = append(entries, Entry{Kind: KindPractice, At: p.CompletedAt, Practice: p})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.At.Compare(a.At)
	})
	return entries
}

// ExportFilename はエクスポートファイル名を返す。
func ExportFilename(at time.Time) string {
	return "mindjournal-export-" + at.UTC().Format("2006-01-02") + ".json"
}
