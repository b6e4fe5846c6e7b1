package extract

import "regexp"

// Person field names.
const (
	FieldName          = "name"
	FieldProfilePhoto  = "profile_photo"
	FieldLocation      = "location"
	FieldConnections   = "connections_count"
	FieldJobTitle      = "current_job_title"
	FieldCompany       = "current_company"
	FieldSkills        = "skills"
	FieldEducation     = "education"
	FieldUndergraduate = "undergraduate_university"
	FieldGraduate      = "graduate_schools"
)

var (
	reDigitOrAt     = regexp.MustCompile(`[\d@]`)
	reConnections   = regexp.MustCompile(`(\d[\d,]*\+?)`)
	reConnectionsIn = regexp.MustCompile(`(?i)\d[\d,]*\+?\s+connections`)
	reMiddot        = regexp.MustCompile(`[·•]`)

	// ProfileLinkPattern matches member profile paths.
	ProfileLinkPattern = regexp.MustCompile(`^/in/[^/]+/?$`)
)

// UndergraduateKeywords and GraduateKeywords drive Classify for profiles.
var (
	UndergraduateKeywords = []string{"bachelor", "ba", "bs", "undergraduate"}
	GraduateKeywords      = []string{"master", "mba", "ms", "ma", "phd", "doctorate", "graduate"}
)

var nameSpec = Field{
	Name: FieldName,
	Locators: Locators(
		"h1.text-heading-xlarge",
		"h1.break-words",
		".pv-text-details__left-panel h1",
		".ph5 h1",
		"[data-generated-suggestion-target] h1",
		`h1[class*="text-heading"]`,
		".top-card-layout__title",
		".pv-top-card--photo h1",
	),
	Fallbacks: []Source{
		Title(" | "),
		MetaPair("property", "profile:first_name", "profile:last_name"),
		Meta("property", "og:title").Before(" | "),
		JSONLD("Person", "name"),
	},
	Validate: MaxLen(99),
}

var photoSpec = Field{
	Name: FieldProfilePhoto,
	Locators: AttrLocators("src",
		".pv-top-card--photo img",
		".profile-photo-edit__preview img",
		".pv-top-card-profile-picture__image",
		".presence-entity__image img",
		`[data-anonymize="headshot"] img`,
		".top-card__profile-image",
	),
	Fallbacks: []Source{Meta("property", "og:image")},
	Validate:  Contains("http"),
}

var connectionsSpec = Field{
	Name: FieldConnections,
	Locators: Locators(
		".pv-top-card--list-bullet .link-without-visited-state",
		`.pv-top-card--list-bullet a[href*="connections"]`,
		`.top-card-layout__card a[href*="connections"]`,
		".top-card__subline-item--bullet",
	),
	Fallbacks: []Source{PageText(reConnectionsIn)},
	Process:   Submatch(reConnections, 1),
}

// Experience entries list the most recent position first, so the first
// match of each sub-locator is the current role.
var (
	experienceTitle = Locators(
		".experience-section .pv-entity__summary-info h3",
		".pvs-entity .mr1 .hoverable-link-text",
		".pvs-entity .t-16 .hoverable-link-text",
		".artdeco-list__item h3",
		".experience-item__title",
	)
	experienceCompany = Locators(
		".experience-section .pv-entity__secondary-title",
		".pvs-entity .t-14 .hoverable-link-text",
		".pvs-entity .pvs-entity__caption-wrapper",
		`.pvs-entity span[aria-hidden="true"]`,
		".experience-item__subtitle",
	)
	headline = Locators(
		".text-body-medium.break-words",
		".pv-text-details__left-panel .text-body-medium",
		".ph5 .text-body-medium",
		".top-card-layout__headline",
		".pv-top-card--headline",
	)
)

var skillLocators = Locators(
	".pv-skill-category-entity__skill-wrapper .pv-skill-category-entity__name-text",
	".skill-category-entity .pv-skill-category-entity__name span",
	`.pvs-entity .mr1.hoverable-link-text span[aria-hidden="true"]`,
	".skills-section .pv-skill-category-entity__name-text",
	".skills__item",
)

var educationSpec = Education{
	Name:          FieldEducation,
	Undergraduate: FieldUndergraduate,
	Graduate:      FieldGraduate,
	Entries: Locators(
		".education-section .pv-entity__summary-info",
		".education .pv-entity__summary-info",
		".education__list-item",
		".pvs-list .pvs-entity",
	),
	School: Locators(
		"h3 .hoverable-link-text",
		".pv-entity__school-name",
		`.t-16 .hoverable-link-text span[aria-hidden="true"]`,
		".education__item--school-name",
		"h3",
	),
	Degree: Locators(
		".pv-entity__degree-name .pv-entity__comma-item",
		".pv-entity__secondary-title",
		`.t-14 span[aria-hidden="true"]`,
		".education__item--degree-info",
		"h4",
	),
	UndergraduateKeywords: UndergraduateKeywords,
	GraduateKeywords:      GraduateKeywords,
}

// personSpecs builds the profile cascade. location and skillCap differ
// between the public and the signed-in page variants.
func personSpecs(location Field, skillCap int) []Spec {
	return []Spec{
		nameSpec,
		photoSpec,
		location,
		connectionsSpec,
		Field{
			Name:     FieldJobTitle,
			Locators: experienceTitle,
		},
		Field{
			Name:         FieldCompany,
			Locators:     experienceCompany,
			Process:      SplitFirst(reMiddot),
			DistinctFrom: []string{FieldJobTitle},
		},
		Compound{
			Name:         "headline",
			Locators:     headline,
			Sep:          " at ",
			Cut:          ".|",
			First:        FieldJobTitle,
			Second:       FieldCompany,
			FallbackOnly: true,
		},
		Compound{
			Name:      "description",
			Fallbacks: []Source{Meta("name", "description")},
			Validate:  Contains(" at "),
			Sep:       " at ",
			Cut:       ".|",
			First:     FieldJobTitle,
			Second:    FieldCompany,
		},
		Field{
			Name:      FieldJobTitle,
			Fallbacks: []Source{JSONLD("", "jobTitle")},
		},
		Field{
			Name:      FieldCompany,
			Fallbacks: []Source{JSONLD("", "worksFor.name")},
		},
		List{
			Name:     FieldSkills,
			Locators: skillLocators,
			Validate: MaxLen(49),
			Limit:    skillCap,
		},
		educationSpec,
	}
}

// PersonSchema extracts a public profile page.
var PersonSchema = NewSchema("person", personSpecs(Field{
	Name: FieldLocation,
	Locators: []Locator{
		MustLocator(".pv-text-details__left-panel .text-body-small").All(),
		MustLocator(".pv-top-card--list-bullet li").All(),
		MustLocator(".top-card-layout__card .text-body-small").All(),
		MustLocator(".pv-top-card-profile-picture__container + div .text-body-small").All(),
		MustLocator(".top-card__subline-item").All(),
	},
	Validate: All(MinLen(4), NoMatch(reDigitOrAt)),
}, 20)...)

// SessionPersonSchema extracts the signed-in rendering of a profile, which
// mixes contact and follower links into the location block.
var SessionPersonSchema = NewSchema("person-session", personSpecs(Field{
	Name: FieldLocation,
	Locators: []Locator{
		MustLocator(".text-body-small.inline.t-black--light.break-words").All(),
		MustLocator(".pv-text-details__left-panel .text-body-small").All(),
		MustLocator(".pv-top-card--list-bullet li").All(),
	},
	Validate: All(MinLen(4), NoMatch(reDigitOrAt), Excludes("connection", "follower", "contact", "message")),
}, 10)...)
