package intelligence

// getDefaultRules returns the built-in subject rules. Order matters: when
// two subjects score the same, the earlier one wins.
func getDefaultRules() []SubjectRule {
	return []SubjectRule{
		{
			Subject:  "Anatomy",
			Keywords: []string{"nerve", "muscle", "bone", "artery", "vein", "ligament"},
			Enabled:  true,
		},
		{
			Subject:  "Physiology",
			Keywords: []string{"hormone", "reflex", "cardiac output", "GFR"},
			Enabled:  true,
		},
		{
			Subject:  "Biochemistry",
			Keywords: []string{"enzyme", "metabolism", "vitamin", "protein", "amino acid"},
			Enabled:  true,
		},
		{
			Subject:  "Pathology",
			Keywords: []string{"tumor", "carcinoma", "necrosis", "inflammation"},
			Enabled:  true,
		},
		{
			Subject:  "Pharmacology",
			Keywords: []string{"drug", "dose", "mechanism", "receptor"},
			Enabled:  true,
		},
		{
			Subject:  "Microbiology",
			Keywords: []string{"bacteria", "virus", "fungus", "parasite", "infection"},
			Enabled:  true,
		},
		{
			Subject:  "Forensic Medicine",
			Keywords: []string{"poison", "injury", "death", "autopsy"},
			Enabled:  true,
		},
		{
			Subject:  "Community Medicine",
			Keywords: []string{"epidemiology", "vaccine", "sanitation", "statistics"},
			Enabled:  true,
		},
		{
			Subject:  "Ophthalmology",
			Keywords: []string{"eye", "retina", "cornea", "vision", "glaucoma"},
			Enabled:  true,
		},
		{
			Subject:  "ENT",
			Keywords: []string{"ear", "nose", "throat", "hearing", "vertigo"},
			Enabled:  true,
		},
		{
			Subject:  "Medicine",
			Keywords: []string{"diabetes", "hypertension", "fever", "anemia", "jaundice"},
			Enabled:  true,
		},
		{
			Subject:  "Surgery",
			Keywords: []string{"incision", "hernia", "appendix"},
			Enabled:  true,
		},
		{
			Subject:  "Pediatrics",
			Keywords: []string{"child", "infant", "neonate", "vaccination"},
			Enabled:  true,
		},
		{
			Subject:  "Obstetrics & Gynecology",
			Keywords: []string{"pregnancy", "delivery", "uterus", "ovary", "menstrual"},
			Enabled:  true,
		},
		{
			Subject:  "Psychiatry",
			Keywords: []string{"depression", "schizophrenia", "anxiety"},
			Enabled:  true,
		},
		{
			Subject:  "Dermatology",
			Keywords: []string{"skin", "rash", "lesion", "eczema"},
			Enabled:  true,
		},
		{
			Subject:  "Radiology",
			Keywords: []string{"x-ray", "ct", "mri", "ultrasound", "radiograph"},
			Enabled:  true,
		},
		{
			Subject:  "Anaesthesia",
			Keywords: []string{"sedation", "intubation", "ventilation"},
			Enabled:  true,
		},
		{
			Subject:  "Orthopedics",
			Keywords: []string{"fracture", "joint", "dislocation"},
			Enabled:  true,
		},
	}
}
