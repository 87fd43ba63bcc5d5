// Viewlens - Watch History Pattern Analysis and Suppression Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewlens

package profile

import (
	"testing"

	"golang.org/x/text/language"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  language.Tag
	}{
		{"english", "How to build a shed in the backyard", language.English},
		{"plain latin defaults to english", "lofi hip hop radio", language.English},
		{"spanish markers", "El mejor truco de la semana para cocinar", language.Spanish},
		{"russian", "Последние новости сегодня вечером", language.Russian},
		{"japanese kana", "今日のニュースをチェック", language.Japanese},
		{"kana beats kanji count", "東京大学の研究者がすごい発見", language.Japanese},
		{"katakana only", "アニメ オススメ ランキング", language.Japanese},
		{"chinese pure han", "今天的新闻报道", language.Chinese},
		{"korean", "오늘의 주요 뉴스 모음", language.Korean},
		{"arabic", "أخبار اليوم المهمة", language.Arabic},
		{"greek", "Τα νέα της ημέρας", language.Greek},
		{"digits only", "1000 2000 3000", language.Und},
		{"empty", "", language.Und},
		{"punctuation only", "!!! ???", language.Und},
		{"mixed latin tail stays cyrillic", "Новости дня ep 2", language.Russian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.title); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestDetectLanguage_Deterministic(t *testing.T) {
	title := "Сегодня 今日 today"
	first := DetectLanguage(title)
	for i := 0; i < 50; i++ {
		if got := DetectLanguage(title); got != first {
			t.Fatalf("run %d: DetectLanguage(%q) = %v, previously %v", i, title, got, first)
		}
	}
}
