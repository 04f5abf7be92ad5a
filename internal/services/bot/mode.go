package bot

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrUnknownMode は不明なモード名が指定された場合に返されます。
var ErrUnknownMode = errors.New("unknown gameplay mode")

// Mode はボットの戦略モードです。
type Mode int

const (
	ModeSurvival      Mode = iota + 1 // 1: 穴と高さを強く避ける
	ModeTetrisBuilder                 // 2: 井戸を作ってテトリスを狙う
	ModeProAttack                     // 3: 盤面が低い間に平らさを重視する
	ModeZen                           // 4: 全ての倍率が1
	ModeBalanced                      // 5: 全ての倍率が1（自動選択されない）
)

// AllModes は全てのモードです。
var AllModes = []Mode{ModeSurvival, ModeTetrisBuilder, ModeProAttack, ModeZen, ModeBalanced}

// DefaultMode は起動時のモードです。
const DefaultMode = ModeZen

// WeightProfile は各特徴量のコストに掛ける倍率です。
type WeightProfile struct {
	Holes     float64 `json:"holes"`
	Roughness float64 `json:"roughness"`
	Chimney   float64 `json:"chimney"`
	MaxHeight float64 `json:"maxHeight"`
	AggHeight float64 `json:"aggHeight"`
}

// Mul は要素ごとの積を返します。
func (w WeightProfile) Mul(o WeightProfile) WeightProfile {
	return WeightProfile{
		Holes:     w.Holes * o.Holes,
		Roughness: w.Roughness * o.Roughness,
		Chimney:   w.Chimney * o.Chimney,
		MaxHeight: w.MaxHeight * o.MaxHeight,
		AggHeight: w.AggHeight * o.AggHeight,
	}
}

var modeProfiles = map[Mode]WeightProfile{
	ModeSurvival:      {Holes: 1.35, Roughness: 1.0, Chimney: 0.8, MaxHeight: 1.4, AggHeight: 1.2},
	ModeTetrisBuilder: {Holes: 0.95, Roughness: 1.1, Chimney: 1.3, MaxHeight: 0.95, AggHeight: 1.0},
	ModeProAttack:     {Holes: 1.1, Roughness: 1.25, Chimney: 1.1, MaxHeight: 1.0, AggHeight: 0.9},
	ModeZen:           {Holes: 1, Roughness: 1, Chimney: 1, MaxHeight: 1, AggHeight: 1},
	ModeBalanced:      {Holes: 1, Roughness: 1, Chimney: 1, MaxHeight: 1, AggHeight: 1},
}

// Profile はモードの倍率を返します。不明なモードは BALANCED と同じ扱いです。
func (m Mode) Profile() WeightProfile {
	if p, ok := modeProfiles[m]; ok {
		return p
	}
	return modeProfiles[ModeBalanced]
}

// Valid はモードが定義済みかどうかを返します。
func (m Mode) Valid() bool {
	_, ok := modeProfiles[m]
	return ok
}

func (m Mode) String() string {
	switch m {
	case ModeSurvival:
		return "SURVIVAL"
	case ModeTetrisBuilder:
		return "TETRIS_BUILDER"
	case ModeProAttack:
		return "PRO_ATTACK"
	case ModeZen:
		return "ZEN"
	case ModeBalanced:
		return "BALANCED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText はモードを名前で JSON に書き出します。
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText は名前からモードを読み込みます。
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode はモード名（大文字小文字、ハイフンとアンダースコアを区別しない）をモードに変換します。
func ParseMode(s string) (Mode, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, m := range AllModes {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// 自動選択の境界。リスク比率がこの値以下ならそのモードの帯に入ります。
const (
	proAttackThreshold     = 0.20
	tetrisBuilderThreshold = 0.45
	survivalThreshold      = 0.70

	// HysteresisGap は帯の境界をまたいで戻るために必要な余白です。
	HysteresisGap = 0.05
)

// autoBand は自動選択されるモードの帯（リスク比率の範囲）です。
// rank が大きいほど保守的なモードです。
type autoBand struct {
	rank       int
	lower      float64 // この値より大きい比率で帯に入る
	upper      float64 // この値以下の比率で帯に入る
	unboundedU bool
}

var autoBands = map[Mode]autoBand{
	ModeProAttack:     {rank: 0, lower: -1, upper: proAttackThreshold},
	ModeTetrisBuilder: {rank: 1, lower: proAttackThreshold, upper: tetrisBuilderThreshold},
	ModeSurvival:      {rank: 2, lower: tetrisBuilderThreshold, upper: survivalThreshold},
	ModeZen:           {rank: 3, lower: survivalThreshold, unboundedU: true},
}

// bandFor はヒステリシスを考えない場合のモードを返します。
func bandFor(ratio float64) Mode {
	switch {
	case ratio <= proAttackThreshold:
		return ModeProAttack
	case ratio <= tetrisBuilderThreshold:
		return ModeTetrisBuilder
	case ratio <= survivalThreshold:
		return ModeSurvival
	default:
		return ModeZen
	}
}

// ModeSelector はリスク比率からモードを選ぶ状態機械です。
// 直前に選んだモードを記憶し、境界付近での振動をヒステリシスで防ぎます。
// 手動モードではリスク比率に関係なく固定のモードを返します。
type ModeSelector struct {
	mu     sync.Mutex
	auto   bool
	manual Mode
	last   Mode
}

// NewModeSelector は自動モードの選択器を作成します。initial は自動選択の初期状態と手動モードの値です。
func NewModeSelector(initial Mode) *ModeSelector {
	if !initial.Valid() {
		initial = DefaultMode
	}
	return &ModeSelector{auto: true, manual: initial, last: initial}
}

// SetManual はモードを固定し、自動選択を無効にします。
func (s *ModeSelector) SetManual(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auto = false
	s.manual = m
	s.last = m
	log.Info().Msgf("[ModeSelector] 手動モード: %s", m)
	return nil
}

// SetAuto は自動選択を有効または無効にします。
func (s *ModeSelector) SetAuto(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auto = enabled
}

// Auto は自動選択が有効かどうかを返します。
func (s *ModeSelector) Auto() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auto
}

// Current は直前に選ばれたモード（手動時は固定モード）を返します。
func (s *ModeSelector) Current() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.auto {
		return s.manual
	}
	return s.last
}

// Select はリスク比率（最大の列の高さ / ボードの高さ）からモードを選び、記憶します。
//
// より保守的なモードから戻る場合は比率が（現在の帯の下限 - HysteresisGap）以下になるまで、
// より攻撃的なモードから上がる場合は比率が（現在の帯の上限 + HysteresisGap）を超えるまで
// 現在のモードを維持します。
func (s *ModeSelector) Select(ratio float64) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.auto {
		return s.manual
	}

	candidate := bandFor(ratio)
	current, tracked := autoBands[s.last]
	if !tracked || candidate == s.last {
		s.transition(candidate, ratio)
		return s.last
	}

	next := autoBands[candidate]
	switch {
	case next.rank < current.rank && ratio > current.lower-HysteresisGap:
		return s.last
	case next.rank > current.rank && !current.unboundedU && ratio <= current.upper+HysteresisGap:
		return s.last
	}
	s.transition(candidate, ratio)
	return s.last
}

func (s *ModeSelector) transition(m Mode, ratio float64) {
	if m != s.last {
		log.Info().Msgf("[ModeSelector] モード変更: %s -> %s (リスク比率 %.2f)", s.last, m, ratio)
	}
	s.last = m
}
