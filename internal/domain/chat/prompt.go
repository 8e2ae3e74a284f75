package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/healthguard/assistant/internal/domain/records"
)

const persona = "You are HealthCare AI, a helpful hospital assistant at City General Hospital. " +
	"You can only answer questions related to healthcare, hospital services, appointments, symptoms, " +
	"doctors, medications, and medical reports. " +
	"If the user asks about anything outside of this domain, politely respond that you are only trained to help with hospital and medical-related queries.\n\n"

// PatientContext is the part of a patient record the prompt may quote.
type PatientContext struct {
	Name              string
	Age               *int
	Gender            *string
	LatestLab         *records.LabReport
	LatestRx          *records.Prescription
	LatestAppointment *records.Appointment
}

// NewPatientContext projects a stored record. It returns nil for nil.
func NewPatientContext(p *records.Patient) *PatientContext {
	if p == nil {
		return nil
	}
	return &PatientContext{
		Name:              p.Name,
		Age:               p.Age,
		Gender:            p.Gender,
		LatestLab:         p.LatestLabReport(),
		LatestRx:          p.LatestPrescription(),
		LatestAppointment: p.LatestAppointment(),
	}
}

// StaffRosterEntry is one line of the hospital staff block.
type StaffRosterEntry struct {
	Name           string
	Specialization string
}

// RosterFromStaff drops everything but name and specialization.
func RosterFromStaff(staff []*records.Staff) []StaffRosterEntry {
	out := make([]StaffRosterEntry, 0, len(staff))
	for _, s := range staff {
		e := StaffRosterEntry{Name: s.Name}
		if s.Specialization != nil {
			e.Specialization = *s.Specialization
		}
		out = append(out, e)
	}
	return out
}

type PromptInput struct {
	Message string
	Patient *PatientContext
	Staff   []StaffRosterEntry
	History []Exchange
}

// BuildPrompt assembles the model prompt. It reads its input only.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(persona)

	if len(in.Staff) > 0 {
		b.WriteString("Hospital Staff:\n")
		for _, s := range in.Staff {
			fmt.Fprintf(&b, "- %s (%s)\n", s.Name, orNA(s.Specialization))
		}
		b.WriteString("\n")
	}

	if p := in.Patient; p != nil {
		age := "N/A"
		if p.Age != nil {
			age = strconv.Itoa(*p.Age)
		}
		gender := "N/A"
		if p.Gender != nil {
			gender = orNA(*p.Gender)
		}
		fmt.Fprintf(&b, "Patient Name: %s\n", orNA(p.Name))
		fmt.Fprintf(&b, "Age: %s\n", age)
		fmt.Fprintf(&b, "Gender: %s\n", gender)

		msg := strings.ToLower(in.Message)
		if containsAny(msg, "lab", "test") && p.LatestLab != nil {
			l := p.LatestLab
			fmt.Fprintf(&b, "Lab Report: %s on %s: %s\n", l.TestName, l.Date, l.Results)
		}
		if containsAny(msg, "medicine", "prescription") && p.LatestRx != nil {
			meds := make([]string, 0, len(p.LatestRx.Medicines))
			for _, m := range p.LatestRx.Medicines {
				meds = append(meds, fmt.Sprintf("%s (%s)", m.Name, m.Dosage))
			}
			fmt.Fprintf(&b, "Latest Prescription: %s (Date: %s)\n", strings.Join(meds, ", "), p.LatestRx.Date)
		}
		if containsAny(msg, "appointment", "visit") && p.LatestAppointment != nil {
			a := p.LatestAppointment
			fmt.Fprintf(&b, "Next Appointment: %s on %s\n", a.Description, a.Date)
		}
	}

	if len(in.History) > 0 {
		b.WriteString("\nRecent conversation history:\n")
		for _, h := range lastN(in.History, HistorySize) {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", h.Question, h.Answer)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User query: %s\n\nAssistant:", in.Message)
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lastN(h []Exchange, n int) []Exchange {
	if len(h) > n {
		return h[len(h)-n:]
	}
	return h
}
