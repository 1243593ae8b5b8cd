// Package taxonomytest provides a minimal taxonomy for tests.
package taxonomytest

import (
	"testing"

	"github.com/jonathan/job-matcher/internal/taxonomy"
)

// Fixture is a three-job taxonomy: payroll and invoicing share the finance sector,
// manager sits alone in management.
const Fixture = `{
  "version": "test-1",
  "language": "fr",
  "sectors": [
    {"id": "finance", "label": "Finance", "keywords": ["finance", "comptabilité", "trésorerie"]},
    {"id": "management", "label": "Management", "keywords": ["management", "encadrement"]}
  ],
  "sub_sectors": [
    {"id": "paie", "sector": "finance", "label": "Paie"},
    {"id": "facturation", "sector": "finance", "label": "Facturation"},
    {"id": "encadrement", "sector": "management", "label": "Encadrement"}
  ],
  "jobs": [
    {
      "id": "gestionnaire_paie",
      "label": "Gestionnaire de paie",
      "sub_sector": "paie",
      "keywords": ["paie", "bulletin de paie"],
      "required_combinations": [["gestionnaire", "paie"], ["paie"]],
      "exclude_combinations": [["assistant", "paie"]],
      "skills": ["dsn", "charges sociales", "silae"],
      "critical_skills": ["dsn"],
      "levels": [
        {"level": "senior", "indicators": ["responsable paie"]},
        {"level": "confirmed", "indicators": ["gestionnaire"]}
      ],
      "incompatible_with": [
        {"job": "assistant_facturation", "coefficient": 0.1, "reason": "payroll is not invoicing"}
      ]
    },
    {
      "id": "assistant_facturation",
      "label": "Assistant facturation",
      "sub_sector": "facturation",
      "keywords": ["facturation"],
      "required_combinations": [["facturation"]],
      "skills": ["factures", "relances clients"],
      "levels": [{"level": "junior", "indicators": ["assistant"]}]
    },
    {
      "id": "manager",
      "label": "Manager",
      "sector": "management",
      "sub_sector": "encadrement",
      "keywords": ["manager"],
      "required_combinations": [["manager"]],
      "exclude_combinations": [["assistant"]],
      "skills": ["management", "budget"],
      "levels": [{"level": "senior", "indicators": ["manager"]}]
    }
  ],
  "compatibility": {
    "same_sector_default": 0.55,
    "cross_sector_default": 0.3,
    "entries": [{"from": "paie", "to": "facturation", "coefficient": 0.25}]
  },
  "exclusion_rules": [
    {
      "id": "assistant_facturation_not_management",
      "when": [["assistant", "facturation"]],
      "exclude_sectors": ["management"],
      "reason": "an invoicing assistant is not a manager"
    }
  ],
  "context_level_indicators": {
    "cv": [
      {"level": "senior", "indicators": ["senior"]},
      {"level": "junior", "indicators": ["junior", "débutant"]}
    ],
    "posting": [
      {"level": "senior", "indicators": ["senior"]},
      {"level": "junior", "indicators": ["junior", "première expérience"]}
    ]
  }
}`

// Registry loads Fixture, failing the test on error.
func Registry(t testing.TB) *taxonomy.Registry {
	t.Helper()
	reg, err := taxonomy.Load([]byte(Fixture))
	if err != nil {
		t.Fatalf("failed to load fixture taxonomy: %v", err)
	}
	return reg
}

// Default loads the embedded taxonomy, failing the test on error.
func Default(t testing.TB) *taxonomy.Registry {
	t.Helper()
	reg, err := taxonomy.Default()
	if err != nil {
		t.Fatalf("failed to load default taxonomy: %v", err)
	}
	return reg
}
