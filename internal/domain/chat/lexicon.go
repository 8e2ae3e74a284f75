package chat

import (
	"strings"

	"github.com/healthguard/assistant/pkg/textmatch"
)

// Canned FAQ answers.
const (
	answerVisitingHours = "Visiting hours are from 4 PM to 7 PM daily. Only 2 visitors per patient are allowed."
	answerInsurance     = "Yes, we accept most major insurance providers including ABC Insurance, XYZ Health, and Global Care."
	answerAppointment   = "You can book an appointment:\n• Online through our patient portal\n• By calling reception at +91-9876543211\n• In-person at reception desk"
	answerEmergency     = "For emergencies, call our 24/7 emergency hotline: +91-9876543210"
	answerLocation      = "We are located at: 123 Health Care Avenue, Medical District, City - 560001"
	answerTimings       = "Our timings:\n• OPD: 9:00 AM - 6:00 PM\n• Emergency: 24/7\n• Pharmacy: 8:00 AM - 10:00 PM"
)

type faqEntry struct {
	question string
	answer   string
}

// faqs is checked in order; the first question contained in the input wins.
var faqs = []faqEntry{
	{"what are the visiting hours", answerVisitingHours},
	{"do you accept insurance", answerInsurance},
	{"how can i book an appointment", answerAppointment},
	{"what is the emergency contact number", answerEmergency},
	{"where is the hospital located", answerLocation},
	{"what are your operation timings", answerTimings},
}

type keywordSet struct {
	keywords []string
	answer   string
}

// faqKeywords is the fallback when no question matches literally. Priority
// order matters: "time" routes to visiting hours before "hour" can reach
// timings.
var faqKeywords = []keywordSet{
	{[]string{"visit", "visiting", "hours", "time"}, answerVisitingHours},
	{[]string{"insurance", "claim", "coverage"}, answerInsurance},
	{[]string{"appointment", "book", "schedule"}, answerAppointment},
	{[]string{"emergency", "urgent", "critical"}, answerEmergency},
	{[]string{"location", "address", "where"}, answerLocation},
	{[]string{"timing", "open", "close", "hour"}, answerTimings},
}

// MatchFAQ returns the canned answer for text, if any. Matching is substring
// based on the lower-cased input, so "visitor" matches "visit".
func MatchFAQ(text string) (string, bool) {
	query := strings.ToLower(text)

	for _, f := range faqs {
		if strings.Contains(query, f.question) {
			return f.answer, true
		}
	}
	for _, set := range faqKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(query, kw) {
				return set.answer, true
			}
		}
	}
	return "", false
}

type symptomGroup struct {
	words  []string
	advice string
}

var symptomGroups = []symptomGroup{
	{[]string{"fever", "headache", "body", "pain"}, "You may have viral fever. Please consult a physician. Rest and stay hydrated."},
	{[]string{"cough", "cold", "sore", "throat"}, "These appear to be cold symptoms. Stay hydrated and consider steam inhalation."},
	{[]string{"chest", "pain", "breathlessness"}, "🚨 These could be serious symptoms. Please visit emergency immediately."},
	{[]string{"stomach", "pain", "nausea", "vomiting"}, "These could indicate gastritis or food poisoning. Consult a doctor."},
	{[]string{"headache", "dizziness"}, "These symptoms need medical evaluation. Please consult a physician."},
}

// SymptomCutoff is the minimum similarity for a misspelled token to count
// as a symptom word.
const SymptomCutoff = 0.7

// minSymptomHits is how many words of a group must match before its advice
// is given.
const minSymptomHits = 2

// MatchSymptoms returns the advice of the group with the most matching words.
// A group needs at least two hits. On a tie the earlier group is kept.
func MatchSymptoms(text string) (string, bool) {
	tokens := strings.Fields(strings.ToLower(text))
	seen := make(map[string]struct{}, len(tokens))
	uniq := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			uniq = append(uniq, t)
		}
	}

	best, highest := "", 0
	for _, g := range symptomGroups {
		hits := 0
		for _, w := range g.words {
			if _, ok := seen[w]; ok {
				hits++
				continue
			}
			if _, ok := textmatch.Closest(w, uniq, SymptomCutoff); ok {
				hits++
			}
		}
		if hits > highest && hits >= minSymptomHits {
			highest = hits
			best = g.advice
		}
	}
	return best, best != ""
}
