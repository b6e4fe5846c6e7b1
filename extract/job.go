package extract

import "regexp"

// Job field names.
const (
	FieldJobPostTitle    = "job_title"
	FieldJobURL          = "job_url"
	FieldJobCompany      = "company_name"
	FieldJobLocation     = "job_location"
	FieldPostedDate      = "posted_date"
	FieldSalary          = "salary_range"
	FieldJobType         = "job_type"
	FieldDescription     = "job_description"
	FieldExperienceLevel = "experience_level"
	FieldDepartment      = "department"
)

// DescriptionLimit caps job descriptions, in runes.
const DescriptionLimit = 1000

// JobLinkPattern matches job posting paths; it backs the link fallback when
// a search page has no recognizable cards.
var JobLinkPattern = regexp.MustCompile(`/jobs/view/`)

// JobCardContainers locate the repeated card elements of a search page.
// The first container that matches anything wins.
var JobCardContainers = Locators(
	".job-search-card",
	".base-card",
	".base-search-card",
	"[data-job-id]",
	".job-card-container",
)

var jobTitleQueries = []string{
	"h3 a",
	".job-card-list__title a",
	"[data-job-id] h3 a",
	".base-search-card__title a",
	".job-card-container__link",
	`a[data-tracking-control-name="public_jobs_jserp-result_search-card"]`,
	"h3.base-search-card__title",
	"a.base-card__full-link",
}

// JobCardSchema extracts one card of a job search page. Run it with
// ExtractFrom on each element returned by Cards.
var JobCardSchema = NewSchema("job-card",
	Field{
		Name:     FieldJobPostTitle,
		Locators: Locators(jobTitleQueries...),
	},
	Field{
		Name:     FieldJobURL,
		Locators: AttrLocators("href", append(jobTitleQueries, `a[href*="/jobs/view/"]`)...),
	},
	Field{
		Name: FieldJobCompany,
		Locators: Locators(
			"h4.base-search-card__subtitle",
			".result-card__company-name",
			".job-card-container__primary-description",
			".job-card-container__company-name",
		),
	},
	Field{
		Name: FieldJobLocation,
		Locators: Locators(
			".job-search-card__location",
			".job-card-container__metadata-item",
			".job-card-list__metadata",
			".base-search-card__metadata",
			".result-card__location",
		),
	},
	Field{
		Name: FieldPostedDate,
		Locators: []Locator{
			MustLocator("time").Attr("datetime"),
			MustLocator("time"),
			MustLocator(".job-card-container__listed-time"),
			MustLocator(".job-search-card__listdate"),
		},
	},
	Field{
		Name: FieldSalary,
		Locators: Locators(
			".job-search-card__salary-info",
			".result-card__salary",
		),
	},
	List{
		Name: FieldJobType,
		Locators: Locators(
			".job-search-card__job-type",
			".job-card-container__metadata-wrapper span",
			".base-search-card__metadata span",
		),
		DistinctFrom: []string{FieldJobLocation},
		Limit:        10,
	},
)

// JobDetailSchema extracts a job posting page.
var JobDetailSchema = NewSchema("job-detail",
	Field{
		Name: FieldDescription,
		Locators: []Locator{
			MustLocator(".show-more-less-html").HTML(),
			MustLocator(".description__text").HTML(),
			MustLocator(".job-description").HTML(),
			MustLocator(".jobs-description__content").HTML(),
		},
		Fallbacks: []Source{
			Meta("name", "description"),
			Readable(),
		},
		Process: Markdown(DescriptionLimit),
	},
	Field{
		Name: FieldSalary,
		Locators: Locators(
			`span[class*="salary"]`,
			`div[class*="salary"]`,
			`span[class*="compensation"]`,
			`div[class*="compensation"]`,
		),
	},
	Field{
		Name: FieldExperienceLevel,
		Locators: Locators(
			`span[class*="experience"]`,
			`div[class*="experience"]`,
			`span[class*="level"]`,
			`div[class*="level"]`,
		),
		Validate: MaxLen(120),
	},
	Field{
		Name: FieldDepartment,
		Locators: Locators(
			`span[class*="department"]`,
			`div[class*="department"]`,
			`span[class*="team"]`,
			`div[class*="team"]`,
		),
		Validate: MaxLen(120),
	},
)
