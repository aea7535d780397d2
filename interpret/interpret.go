// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package interpret translates the fixed set of English display phrases
// into one alternate language. Unknown phrases pass through unchanged.
package interpret

import (
	"fmt"
	"sort"
	"strings"
)

// Language identifies a phrase table.
type Language string

const (
	English  Language = "ENGLISH"
	Deutsch  Language = "DEUTSCH"
	Francais Language = "FRANCAIS"
	Pirate   Language = "PIRATE"
)

var tables = map[Language]map[string]string{
	Deutsch: {
		"Air Quality":        "Luftqualität",
		"ALARM":              "ALARM",
		"Alarm":              "Alarm",
		"CALIBRATE":          "KALIBRIEREN",
		"DANGER":             "GEFAHR",
		"ENGLISH":            "DEUTSCH",
		"GOOD":               "GUT",
		"HAZARDOUS":          "GEFÄHRLICH",
		"Indoor Air Quality": "Raumluftqualität",
		"INVALID":            "UNGÜLTIG",
		"LANGUAGE":           "SPRACHE",
		"LOW BATTERY":        "NIEDRIGER BATTERIE",
		"MODERATE":           "MÄSSIG",
		"NO SENSOR":          "KEIN SENSOR",
		"OVERRANGE":          "ÜBER MAXIMUM",
		"POOR":               "SCHLECT",
		"SENSITIVE":          "EMPFIDLICH",
		"TEMPERATURE":        "TEMPERATUR",
		"UNHEALTHY":          "UNGESUND",
		"V UNHEALTHY":        "SEHR UNGESUND",
		"WARMUP":             "ERWÄRMEN",
		"WARNING":            "WARNUNG",
	},
	Francais: {
		"Air Quality":        "Qualité de l'air",
		"ALARM":              "ALARME",
		"Alarm":              "Alarme",
		"CALIBRATE":          "ÉTALONNAGE",
		"DANGER":             "DANGER",
		"ENGLISH":            "FRANÇAIS",
		"GOOD":               "BON",
		"HAZARDOUS":          "RISQUÉ",
		"Indoor Air Quality": "Qualité de l'air intérieur",
		"INVALID":            "INVALIDE",
		"LANGUAGE":           "LANGUE",
		"LOW BATTERY":        "BATTERIE FAIBLE",
		"MODERATE":           "MODÉRÉ",
		"NO SENSOR":          "PAS DE CAPTEUR",
		"OVERRANGE":          "MAXIMUM",
		"POOR":               "PAUVRES",
		"SENSITIVE":          "SENSIBLE",
		"TEMPERATURE":        "TEMPÉRATURE",
		"UNHEALTHY":          "MALSAIN",
		"V UNHEALTHY":        "TRÈS MALSAIN",
		"WARMUP":             "PRÉCHAUFFE",
		"WARNING":            "ATTENTION",
	},
	Pirate: {
		"Air Quality":        "Crow's Nest Lookout",
		"ALARM":              "BELLS",
		"Alarm":              "Bells",
		"CALIBRATE":          "BRING SPRING",
		"DANGER":             "AVAST YE",
		"ENGLISH":            "PIRATE",
		"GOOD":               "SHIPSHAPE",
		"HAZARDOUS":          "FEED FISH",
		"Indoor Air Quality": "Poop Deck Lookout",
		"INVALID":            "SINK ME",
		"LANGUAGE":           "AARRGGHH",
		"LOW BATTERY":        "BLIMEY",
		"MODERATE":           "THREE SHEETS",
		"NO SENSOR":          "NO SPYGLASS",
		"OVERRANGE":          "OVERBOARD",
		"POOR":               "BATTEN YE",
		"SENSITIVE":          "AVAST YE",
		"TEMPERATURE":        "SWEATIN'",
		"UNHEALTHY":          "YELLOW JACK",
		"V UNHEALTHY":        "SHARK BAIT",
		"WARMUP":             "FIRE IN HOLE",
		"WARNING":            "BOW SHOT",
	},
}

// Interpreter translates into one alternate language.
type Interpreter struct {
	lang  Language
	table map[string]string
}

// New returns an Interpreter for lang. English is accepted and translates
// nothing.
func New(lang Language) (*Interpreter, error) {
	lang = Language(strings.ToUpper(string(lang)))
	if lang == English {
		return &Interpreter{lang: lang}, nil
	}
	table, ok := tables[lang]
	if !ok {
		return nil, fmt.Errorf("interpret: unknown language %q", lang)
	}
	return &Interpreter{lang: lang, table: table}, nil
}

// Language returns the alternate language.
func (i *Interpreter) Language() Language {
	return i.lang
}

// Interpret returns the translation of phrase when enabled and a mapping
// exists, phrase otherwise.
func (i *Interpreter) Interpret(enabled bool, phrase string) string {
	if !enabled {
		return phrase
	}
	if s, ok := i.table[phrase]; ok {
		return s
	}
	return phrase
}

// Languages returns the known alternate languages, sorted.
func Languages() []Language {
	out := make([]Language, 0, len(tables))
	for l := range tables {
		out = append(out, l)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
