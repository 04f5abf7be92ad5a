package voxel

import (
	"fmt"
	"sort"
)

// ピースセット名
const (
	SetFlat     = "flat"     // 平面ポリオミノ
	SetBasic    = "basic"    // 3〜4個のポリキューブ
	SetExtended = "extended" // 5個までの全ポリキューブ
)

// DefaultSet は未指定時のピースセットです。
const DefaultSet = SetBasic

var templates = map[string][][][]string{
	SetFlat: {
		{{"x"}},
		{{"xx"}},
		{{"xxx"}},
		{{"xx", "x "}},
		{{"xx", "xx"}},
		{{"xxx", " x "}},
		{{"xx ", " xx"}},
		{{"xxx", "x  "}},
	},
	SetBasic: {
		{{"xx", "x "}},
		{{"xxx", " x "}},
		{{"xx ", " xx"}},
		{{"xxx", "x  "}},
		{{"xx", "x "}, {" x", "  "}},
		{{"xx", "x "}, {"  ", "x "}},
		{{"xx", "x "}, {"x ", "  "}},
	},
	SetExtended: {
		{{"x"}},
		{{"xx"}},
		{{"xxx"}},
		{{"xxxx"}},
		{{"xxxxx"}},
		{{"xx", "x "}},
		{{"xx", "xx"}},
		{{"xxx", " x "}},
		{{"xx ", " xx"}},
		{{"xxx", "x  "}},
		{{"xxx", "x  ", "x  "}},
		{{"xxx", " x ", " x "}},
		{{" x ", "xx ", " xx"}},
		{{"xx ", " x ", " xx"}},
		{{"x  ", "xx ", " xx"}},
		{{"x   ", "xxxx"}},
		{{" x  ", "xxxx"}},
		{{"x x", "xxx"}},
		{{"xx ", "xxx"}},
		{{"  xx", "xxx "}},
		{{" x ", "xxx", " x "}},
		{{"xxx", "x  "}, {"   ", "x  "}},
		{{"xxx", "  x"}, {"   ", "  x"}},
		{{"xxx", " x "}, {"   ", " x "}},
		{{"xxx", "x  "}, {" x ", "   "}},
		{{"xxx", "  x"}, {" x ", "   "}},
		{{"xx ", " xx"}, {"x  ", "   "}},
		{{" xx", "xx "}, {"  x", "   "}},
		{{" x ", "xx "}, {" xx", "   "}},
		{{" x ", " xx"}, {"xx ", "   "}},
		{{"xxx", "  x"}, {"x  ", "   "}},
		{{"xxx", "x  "}, {"  x", "   "}},
		{{"xx", "x "}, {" x", "  "}},
		{{"xx", "x "}, {"  ", "x "}},
		{{"xx", "x "}, {"x ", "  "}},
		{{"xxx", " x "}, {" x ", "   "}},
		{{"xx", "xx"}, {"x ", "  "}},
		{{"xxx", "x  "}, {"x  ", "   "}},
		{{" xx", " x "}, {"xx ", "   "}},
		{{"xx ", " x "}, {" xx", "   "}},
		{{"xx", " x"}, {"  ", "xx"}},
	},
}

var pieceSets = func() map[string][]*Polycube {
	sets := make(map[string][]*Polycube, len(templates))
	for name, list := range templates {
		pieces := make([]*Polycube, len(list))
		for i, tpl := range list {
			p, err := NewPolycube(name, i, tpl)
			if err != nil {
				panic(fmt.Errorf("ピースセット %s の定義が不正です: %w", name, err))
			}
			pieces[i] = p
		}
		sets[name] = pieces
	}
	return sets
}()

// PieceSet は名前に対応するピースの一覧を返します。
func PieceSet(name string) ([]*Polycube, bool) {
	pieces, ok := pieceSets[name]
	return pieces, ok
}

// Piece はセット内のピースを返します。
func Piece(set string, index int) (*Polycube, error) {
	pieces, ok := pieceSets[set]
	if !ok {
		return nil, fmt.Errorf("%w: 不明なピースセット %q", ErrInvalidPieceShape, set)
	}
	if index < 0 || index >= len(pieces) {
		return nil, fmt.Errorf("%w: ピースインデックス %d は範囲外です (%s は %d 個)", ErrInvalidPieceShape, index, set, len(pieces))
	}
	return pieces[index], nil
}

// SetNames は利用可能なピースセット名をソートして返します。
func SetNames() []string {
	names := make([]string, 0, len(pieceSets))
	for name := range pieceSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
