package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"fieldpulse/surveyhub/internal/model"
)

// Question extraction is deliberately duck-typed: templates arrive both as a
// legacy flat question list and as a structured tree of sections, and the two
// formats coexist in stored data. The merge below is pure and deterministic:
// legacy list first, then section questions in tree order, then questions
// hanging directly off the structure, deduplicated by id (label when no id is
// present), first occurrence wins. The dedup key is load-bearing; surveys
// snapshot the merged sequence verbatim.

// ExtractLayer1Questions produces the canonical ordered question sequence for
// a template's screening layer.
func ExtractLayer1Questions(t *model.Template) []map[string]any {
	var questions []map[string]any
	_ = json.Unmarshal(t.Layer1Questions, &questions)

	var structure map[string]any
	_ = json.Unmarshal(t.Layer1Structure, &structure)

	if sections, ok := structure["sections"].([]any); ok {
		for _, raw := range sections {
			section, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			questions = appendQuestions(questions, section["questions"])
		}
	}
	questions = appendQuestions(questions, structure["questions"])

	seen := make(map[string]struct{}, len(questions))
	deduped := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		key := questionKey(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, q)
	}
	return deduped
}

func appendQuestions(questions []map[string]any, raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return questions
	}
	for _, item := range list {
		if q, ok := item.(map[string]any); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func questionKey(q map[string]any) string {
	if id, ok := q["id"].(string); ok && id != "" {
		return id
	}
	return fmt.Sprint(q["label"])
}

// Layer1Schema resolves a template's answer schema, falling back to the
// schema embedded in the structured tree when the dedicated column is empty.
func Layer1Schema(t *model.Template) datatypes.JSON {
	if len(t.Layer1Schema) > 0 && !isEmptyJSON(t.Layer1Schema) {
		return t.Layer1Schema
	}
	var structure map[string]any
	if err := json.Unmarshal(t.Layer1Structure, &structure); err == nil {
		if schema, ok := structure["schema"]; ok {
			if raw, err := json.Marshal(schema); err == nil {
				return raw
			}
		}
	}
	return datatypes.JSON([]byte(`{}`))
}

func isEmptyJSON(raw datatypes.JSON) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "{}" || s == "[]" || s == "null"
}

// defaultRespondentQuestions are injected ahead of a survey's screening
// questions by the public gateway when enabled in config. They never touch
// stored snapshots.
func defaultRespondentQuestions() []map[string]any {
	return []map[string]any{
		{"id": "name", "label": "Full Name", "type": "text", "required": true},
		{"id": "age_auto", "label": "Age Range", "type": "mcq", "options": []any{"12-18", "19-25", "26-40", "41-60"}, "required": true},
		{"id": "gender_auto", "label": "Gender", "type": "mcq", "options": []any{"Male", "Female"}, "required": true},
		{"id": "area", "label": "Area", "type": "text", "required": true},
		{"id": "email", "label": "Email Address", "type": "email", "required": true},
	}
}

// injectDefaultQuestions prepends the default respondent questions that are
// not already represented, matching by id substring or normalized label.
func injectDefaultQuestions(questions []map[string]any) []map[string]any {
	defaults := defaultRespondentQuestions()
	for i := len(defaults) - 1; i >= 0; i-- {
		dq := defaults[i]
		dqID, _ := dq["id"].(string)
		dqLabel, _ := dq["label"].(string)
		if !hasSimilarQuestion(questions, dqID, dqLabel) {
			questions = append([]map[string]any{dq}, questions...)
		}
	}
	return questions
}

func hasSimilarQuestion(questions []map[string]any, id, label string) bool {
	normLabel := normalizeLabel(label)
	for _, q := range questions {
		qID, _ := q["id"].(string)
		qLabel, _ := q["label"].(string)
		if qID != "" && strings.Contains(strings.ToLower(qID), id) {
			return true
		}
		if normLabel != "" && strings.Contains(normalizeLabel(qLabel), normLabel) {
			return true
		}
	}
	return false
}

func normalizeLabel(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "")
}

// fillMissingLabels gives unlabeled questions a presentable fallback label.
func fillMissingLabels(questions []map[string]any) {
	for _, q := range questions {
		if label, _ := q["label"].(string); label == "" {
			q["label"] = fmt.Sprintf("Question %v", q["id"])
		}
	}
}
