package genetics

import (
	"fmt"
	"strings"
)

// FeatureKind tags the GeneFeature variants.
type FeatureKind uint8

const (
	FeatureAppearance FeatureKind = iota
	FeatureSkill
	FeatureStat
)

var featureKindNames = []string{"appearance", "skill", "stat"}

func (k FeatureKind) String() string { return enumName(featureKindNames, k) }

// GeneFeature is the payload a gene carries. It is purely descriptive: appearance
// and skill handlers outside the core interpret it.
type GeneFeature interface {
	Kind() FeatureKind
	Clone() GeneFeature
	isFeature()
}

type BodyPart uint8

const (
	BodyPartBody BodyPart = iota
	BodyPartHead
	BodyPartComb
	BodyPartWattle
	BodyPartBeak
	BodyPartWings
	BodyPartTail
	BodyPartLegs
	BodyPartEyes
)

var bodyPartNames = []string{"body", "head", "comb", "wattle", "beak", "wings", "tail", "legs", "eyes"}

func (b BodyPart) String() string { return enumName(bodyPartNames, b) }

func ParseBodyPart(s string) (BodyPart, error) { return parseEnum[BodyPart](bodyPartNames, "body part", s) }

type EffectKind uint8

const (
	EffectColor EffectKind = iota
	EffectMaterial
	EffectTexture
	EffectSize
)

var effectKindNames = []string{"color", "material", "texture", "size"}

func (e EffectKind) String() string { return enumName(effectKindNames, e) }

func ParseEffectKind(s string) (EffectKind, error) {
	return parseEnum[EffectKind](effectKindNames, "effect", s)
}

// AppearanceFeature changes how one body part looks.
type AppearanceFeature struct {
	BodyPart BodyPart
	Effect   EffectKind
	Color    string
	Material string
	Texture  string
	Size     float64
}

func (AppearanceFeature) Kind() FeatureKind     { return FeatureAppearance }
func (f AppearanceFeature) Clone() GeneFeature { return f }
func (AppearanceFeature) isFeature()            {}

type SkillKind uint8

const (
	SkillPassive SkillKind = iota
	SkillActive
)

var skillKindNames = []string{"passive", "active"}

func (s SkillKind) String() string { return enumName(skillKindNames, s) }

func ParseSkillKind(s string) (SkillKind, error) {
	return parseEnum[SkillKind](skillKindNames, "skill kind", s)
}

// SkillFeature grants an ability. Cooldown and Duration are seconds.
type SkillFeature struct {
	Name        string
	Description string
	Level       int
	Cooldown    float64
	Duration    float64
	SkillKind   SkillKind
}

func (SkillFeature) Kind() FeatureKind     { return FeatureSkill }
func (f SkillFeature) Clone() GeneFeature { return f }
func (SkillFeature) isFeature()            {}

type StatKind uint8

const (
	StatStrength StatKind = iota
	StatAgility
	StatEndurance
	StatIntelligence
	StatHealth
)

var statKindNames = []string{"strength", "agility", "endurance", "intelligence", "health"}

func (s StatKind) String() string { return enumName(statKindNames, s) }

func ParseStatKind(s string) (StatKind, error) { return parseEnum[StatKind](statKindNames, "stat", s) }

// StatFeature adds Value to one creature stat.
type StatFeature struct {
	Stat  StatKind
	Value int
}

func (StatFeature) Kind() FeatureKind     { return FeatureStat }
func (f StatFeature) Clone() GeneFeature { return f }
func (StatFeature) isFeature()            {}

func enumName[T ~uint8](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

func parseEnum[T ~uint8](names []string, what, s string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}
