package demo

import "github.com/uncase/dashboard/internal/models"

// Seeds is the built-in seed set written on activation.
var Seeds = []models.Seed{
	{
		ID:            "demo-automotive-001",
		Domain:        "automotive.sales",
		Language:      "es",
		Objective:     "Customer compares financing options for a mid-size SUV",
		Tone:          "professional",
		Roles:         []string{"customer", "sales_advisor"},
		ExpectedTurns: &models.TurnRange{Min: 6, Max: 14},
		Tags:          []string{"financing", "suv"},
	},
	{
		ID:            "demo-medical-001",
		Domain:        "medical.consultation",
		Language:      "es",
		Objective:     "Patient describes recurring migraines during a follow-up visit",
		Tone:          "empathetic",
		Roles:         []string{"patient", "physician"},
		ExpectedTurns: &models.TurnRange{Min: 8, Max: 16},
		Tags:          []string{"follow-up", "neurology"},
	},
	{
		ID:            "demo-legal-001",
		Domain:        "legal.advisory",
		Language:      "en",
		Objective:     "Tenant asks about early lease termination clauses",
		Tone:          "formal",
		Roles:         []string{"client", "attorney"},
		ExpectedTurns: &models.TurnRange{Min: 5, Max: 10},
		Tags:          []string{"housing"},
	},
	{
		ID:            "demo-finance-001",
		Domain:        "finance.advisory",
		Language:      "en",
		Objective:     "Small business owner plans a retirement savings strategy",
		Tone:          "consultative",
		Roles:         []string{"client", "advisor"},
		ExpectedTurns: &models.TurnRange{Min: 6, Max: 12},
		Tags:          []string{"retirement", "smb"},
	},
	{
		ID:            "demo-industrial-001",
		Domain:        "industrial.support",
		Language:      "es",
		Objective:     "Plant operator troubleshoots a CNC spindle vibration alarm",
		Tone:          "technical",
		Roles:         []string{"operator", "support_engineer"},
		ExpectedTurns: &models.TurnRange{Min: 6, Max: 18},
		Tags:          []string{"maintenance"},
	},
	{
		ID:            "demo-education-001",
		Domain:        "education.tutoring",
		Language:      "en",
		Objective:     "Student works through quadratic equation word problems",
		Tone:          "encouraging",
		Roles:         []string{"student", "tutor"},
		ExpectedTurns: &models.TurnRange{Min: 8, Max: 20},
		Tags:          []string{"math"},
	},
}
