package templates

// Built-in templates. These always exist; custom templates loaded from
// disk may shadow them by name.

func defaultPRD() *Template {
	return &Template{
		Name:        "default-prd",
		Type:        TypePRD,
		Version:     "1.0",
		Description: "Product Requirements Document with objectives, user stories and acceptance criteria",
		SectionOrder: []string{
			"introduction", "objectives", "user_stories",
			"functional_requirements", "non_functional_requirements",
			"acceptance_criteria", "out_of_scope",
		},
		Sections: map[string]string{
			"introduction":                "# {project_name} — Product Requirements\n\n## Introduction\n\n{introduction}",
			"objectives":                  "## Objectives\n\n{objectives}",
			"user_stories":                "## User Stories\n\n{user_stories}",
			"functional_requirements":     "## Functional Requirements\n\n{functional_requirements}",
			"non_functional_requirements": "## Non-Functional Requirements\n\n{non_functional_requirements}",
			"acceptance_criteria":         "## Acceptance Criteria\n\n{acceptance_criteria}",
			"out_of_scope":                "## Out of Scope\n\n{out_of_scope}",
		},
	}
}

func defaultSpec() *Template {
	return &Template{
		Name:        "default-spec",
		Type:        TypeSpec,
		Version:     "1.0",
		Description: "Technical specification with architecture, components and interfaces",
		SectionOrder: []string{
			"overview", "architecture", "components",
			"interfaces", "data_model", "error_handling", "testing_strategy",
		},
		Sections: map[string]string{
			"overview":         "# {project_name} — Technical Specification\n\n## Overview\n\n{overview}",
			"architecture":     "## Architecture\n\n{architecture}",
			"components":       "## Components\n\n{components}",
			"interfaces":       "## Interfaces\n\n{interfaces}",
			"data_model":       "## Data Model\n\n{data_model}",
			"error_handling":   "## Error Handling\n\n{error_handling}",
			"testing_strategy": "## Testing Strategy\n\n{testing_strategy}",
		},
	}
}

func defaultDesign() *Template {
	return &Template{
		Name:        "default-design",
		Type:        TypeDesign,
		Version:     "1.0",
		Description: "Design document covering system design, UI design and data flow",
		SectionOrder: []string{
			"system_design", "user_interface_design", "data_flow", "deployment",
		},
		Sections: map[string]string{
			"system_design":         "# {project_name} — Design Document\n\n## System Design\n\n{system_design}",
			"user_interface_design": "## User Interface Design\n\n{user_interface_design}",
			"data_flow":             "## Data Flow\n\n{data_flow}",
			"deployment":            "## Deployment\n\n{deployment}",
		},
	}
}
