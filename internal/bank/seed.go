package bank

// defaultPool is the built-in fallback pool. Real deployments register
// curated per-subject pools on top of it.
func defaultPool() []Question {
	return []Question{
		{
			ID:            "gen-001",
			Text:          "What is 15 multiplied by 7?",
			Type:          ShortAnswer,
			CorrectAnswer: "105",
			Explanation:   "15 x 7 = 105.",
			Difficulty:    "easy",
		},
		{
			ID:            "gen-002",
			Text:          "The Earth revolves around the Sun.",
			Type:          TrueFalse,
			CorrectAnswer: "True",
			Explanation:   "The Earth completes one orbit around the Sun every year.",
			Difficulty:    "easy",
		},
		{
			ID:            "gen-003",
			Text:          "Which planet is known as the Red Planet?",
			Type:          MultipleChoice,
			Options:       []string{"Venus", "Mars", "Jupiter", "Mercury"},
			CorrectAnswer: "Mars",
			Explanation:   "Iron oxide on its surface gives Mars a reddish appearance.",
			Difficulty:    "easy",
		},
		{
			ID:            "gen-004",
			Text:          "What is the chemical symbol for water?",
			Type:          MultipleChoice,
			Options:       []string{"H2O", "CO2", "NaCl", "O2"},
			CorrectAnswer: "H2O",
			Explanation:   "Two hydrogen atoms bonded to one oxygen atom.",
			Difficulty:    "easy",
		},
		{
			ID:            "gen-005",
			Text:          "Sound travels faster in water than in air.",
			Type:          TrueFalse,
			CorrectAnswer: "True",
			Explanation:   "Water is denser, so sound propagates roughly four times faster.",
			Difficulty:    "medium",
		},
		{
			ID:            "gen-006",
			Text:          "Who wrote the play Romeo and Juliet?",
			Type:          MultipleChoice,
			Options:       []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"},
			CorrectAnswer: "William Shakespeare",
			Difficulty:    "easy",
		},
		{
			ID:            "gen-007",
			Text:          "What is the capital city of Japan?",
			Type:          ShortAnswer,
			CorrectAnswer: "Tokyo",
			Difficulty:    "easy",
		},
		{
			ID:            "gen-008",
			Text:          "Lightning is hotter than the surface of the Sun.",
			Type:          TrueFalse,
			CorrectAnswer: "True",
			Explanation:   "A lightning bolt can reach about 30,000 kelvin, five times the Sun's surface.",
			Difficulty:    "hard",
		},
		{
			ID:            "gen-009",
			Text:          "How many sides does a hexagon have?",
			Type:          ShortAnswer,
			CorrectAnswer: "6",
			Difficulty:    "easy",
		},
		{
			ID:            "gen-010",
			Text:          "Which gas do plants absorb from the atmosphere during photosynthesis?",
			Type:          MultipleChoice,
			Options:       []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"},
			CorrectAnswer: "Carbon dioxide",
			Explanation:   "Plants fix CO2 into glucose and release oxygen.",
			Difficulty:    "medium",
		},
	}
}
