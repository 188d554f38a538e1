package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// NameSet は大文字小文字を区別しないファイル名の集合。
// JSONでは文字列の配列として表現する。
type NameSet struct {
	names map[string]string // 小文字化した名前 -> 元の名前
}

// NewNameSet は指定された名前を含むNameSetを生成する。
func NewNameSet(names ...string) NameSet {
	var s NameSet
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func foldName(name string) string {
	return strings.ToLower(name)
}

// Contains は名前が含まれているか確認する。
func (s NameSet) Contains(name string) bool {
	_, ok := s.names[foldName(name)]
	return ok
}

// Add は名前を追加する。既に含まれている場合は何もしない。
func (s *NameSet) Add(name string) {
	if s.names == nil {
		s.names = make(map[string]string)
	}
	key := foldName(name)
	if _, ok := s.names[key]; ok {
		return
	}
	s.names[key] = name
}

// Len は要素数を返す。
func (s NameSet) Len() int {
	return len(s.names)
}

// Names は名前を昇順で返す。
func (s NameSet) Names() []string {
	keys := make([]string, 0, len(s.names))
	for k := range s.names {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = s.names[k]
	}
	return names
}

// MarshalJSON は名前の配列としてエンコードする。
func (s NameSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON は名前の配列をデコードする。重複は大文字小文字を無視して除去される。
func (s *NameSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewNameSet(names...)
	return nil
}

// TrackingEntry はIdentityごとの実行状態。
// FullRunは一度trueになったら戻らず、Scriptsは追加のみ行われる。
type TrackingEntry struct {
	FullRun bool    `json:"fullRun"`
	Scripts NameSet `json:"scripts"`
}

// MarkFullRun はフルスクリプトを実行済みにする。
func (e *TrackingEntry) MarkFullRun() {
	e.FullRun = true
}

// MarkScript は差分スクリプトを実行済みにする。
func (e *TrackingEntry) MarkScript(name string) {
	e.Scripts.Add(name)
}

// HasScript は差分スクリプトが実行済みか確認する。
func (e *TrackingEntry) HasScript(name string) bool {
	return e.Scripts.Contains(name)
}

// TrackingStore はIdentityごとの実行状態を保持する。
// 1回の実行の間、単一のゴルーチンが排他的に所有する。
type TrackingStore map[Identity]*TrackingEntry

// NewTrackingStore は空のTrackingStoreを生成する。
func NewTrackingStore() TrackingStore {
	return make(TrackingStore)
}

// GetOrCreate は既存のエントリを返す。存在しない場合は空のエントリを登録して返す。
func (s TrackingStore) GetOrCreate(id Identity) *TrackingEntry {
	if entry, ok := s[id]; ok && entry != nil {
		return entry
	}
	entry := &TrackingEntry{}
	s[id] = entry
	return entry
}

// Identities はキーを昇順で返す。
func (s TrackingStore) Identities() []Identity {
	ids := make([]Identity, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}
