package content

// Collections is the registry of every managed content section, keyed by
// name. The API router and the console panels are both generated from this
// table; adding a section here is all it takes to expose it end to end.
var Collections = []Collection{
	{
		Name: "news",
		Path: "news/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "News Title", Required: true},
			{Name: "summary", Type: FieldTextArea, Label: "News Summary"},
			{Name: "content", Type: FieldTextArea, Label: "Full Content"},
			{Name: "image", Type: FieldFile, Label: "News Image"},
			{Name: "status", Type: FieldSelect, Label: "Status", Options: []string{"Draft", "Published"}},
		},
	},
	{
		Name: "events",
		Path: "events/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Event Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Description"},
			{Name: "location", Type: FieldText, Label: "Location"},
			{Name: "start_date", Type: FieldDate, Label: "Start Date"},
			{Name: "end_date", Type: FieldDate, Label: "End Date"},
			{Name: "status", Type: FieldSelect, Label: "Status", Options: []string{"draft", "published"}},
			{Name: "image", Type: FieldFile, Label: "Event Image"},
		},
	},
	{
		Name:            "gallery",
		Path:            "gallery/",
		AlwaysMultipart: true,
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Description"},
			{Name: "category", Type: FieldText, Label: "Category"},
			{Name: "image", Type: FieldFile, Label: "Image", Required: true},
		},
	},
	{
		Name: "gallery-categories",
		Path: "gallery-categories/",
		Fields: []Field{
			{Name: "name", Type: FieldText, Label: "Category Name", Required: true},
		},
	},
	{
		Name: "research",
		Path: "research/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Research Title", Required: true},
			{Name: "author", Type: FieldText, Label: "Principal Investigator"},
			{Name: "description", Type: FieldTextArea, Label: "Research Description"},
			{Name: "field", Type: FieldText, Label: "Research Field"},
			{Name: "status", Type: FieldSelect, Label: "Status", Options: []string{"Ongoing", "Completed", "Proposed"}},
		},
	},
	{
		Name: "projects",
		Path: "projects/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Project Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Project Description"},
			{Name: "team", Type: FieldText, Label: "Team Members"},
			{Name: "startDate", Type: FieldDate, Label: "Start Date"},
			{Name: "endDate", Type: FieldDate, Label: "End Date"},
			{Name: "status", Type: FieldSelect, Label: "Status", Options: []string{"Planning", "In Progress", "Completed", "On Hold"}},
		},
	},
	{
		Name: "publications",
		Path: "publications/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Publication Title", Required: true},
			{Name: "author", Type: FieldText, Label: "Author"},
			{Name: "abstract", Type: FieldTextArea, Label: "Abstract"},
			{Name: "file", Type: FieldFile, Label: "PDF File"},
			{Name: "status", Type: FieldSelect, Label: "Status", Options: []string{"Draft", "Published", "Under Review"}},
		},
	},
	{
		Name: "services",
		Path: "services/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Service Name", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Service Description"},
			{Name: "category", Type: FieldSelect, Label: "Category", Options: []string{"Consulting", "Development", "Training", "Support", "Maintenance"}},
			{Name: "price", Type: FieldNumber, Label: "Price"},
			{Name: "status", Type: FieldSelect, Label: "Status", Options: []string{"Active", "Inactive"}},
		},
	},
	{
		Name:            "staff",
		Path:            "staff/",
		AlwaysMultipart: true,
		Fields: []Field{
			{Name: "name", Type: FieldText, Label: "Full Name", Required: true},
			{Name: "position", Type: FieldText, Label: "Position"},
			{Name: "gender", Type: FieldSelect, Label: "Gender", Options: []string{"Male", "Female"}},
			{Name: "bio", Type: FieldTextArea, Label: "Biography"},
			{Name: "image", Type: FieldFile, Label: "Photo"},
		},
	},
	{
		Name:            "organization-structure-files",
		Path:            "organization-structure-files/",
		AlwaysMultipart: true,
		Fields: []Field{
			{Name: "file", Type: FieldFile, Label: "PDF File", Required: true},
		},
	},
	{
		Name: "home-slides",
		Path: "home-slides/",
		Fields: []Field{
			{Name: "text", Type: FieldText, Label: "Slide Text", Required: true},
			{Name: "image", Type: FieldFile, Label: "Slide Image"},
			{Name: "order_index", Type: FieldNumber, Label: "Order"},
			{Name: "is_active", Type: FieldBool, Label: "Active"},
		},
	},
	{
		Name: "home-vc-message",
		Path: "home-vc-message/",
		Fields: []Field{
			{Name: "name", Type: FieldText, Label: "Name", Required: true},
			{Name: "title", Type: FieldText, Label: "Title"},
			{Name: "message_text", Type: FieldTextArea, Label: "Message"},
			{Name: "image", Type: FieldFile, Label: "Portrait"},
			{Name: "video", Type: FieldFile, Label: "Video"},
		},
	},
	{
		Name: "home-services",
		Path: "home-services/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Description"},
			{Name: "image", Type: FieldFile, Label: "Image"},
		},
	},
	{
		Name: "home-marine",
		Path: "home-marine/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Description"},
			{Name: "image", Type: FieldFile, Label: "Image"},
		},
	},
	{
		Name: "home-events",
		Path: "home-events/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Title", Required: true},
			{Name: "subtitle", Type: FieldText, Label: "Subtitle"},
			{Name: "date", Type: FieldDate, Label: "Date"},
			{Name: "badge", Type: FieldText, Label: "Badge"},
			{Name: "image", Type: FieldFile, Label: "Image"},
		},
	},
	{
		Name: "home-impact",
		Path: "home-impact/",
		Fields: []Field{
			{Name: "impact_type", Type: FieldSelect, Label: "Impact Type", Options: []string{"visitors", "publications", "projects", "events"}},
			{Name: "title", Type: FieldText, Label: "Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Description"},
			{Name: "target", Type: FieldNumber, Label: "Target"},
			{Name: "icon", Type: FieldFile, Label: "Icon"},
		},
	},
	{
		Name: "admin-infrastructure",
		Path: "admin-infrastructure/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Description"},
			{Name: "image", Type: FieldFile, Label: "Image"},
		},
	},
	{
		Name: "admin-whychoose",
		Path: "admin-whychoose/",
		Fields: []Field{
			{Name: "title", Type: FieldText, Label: "Title", Required: true},
			{Name: "description", Type: FieldTextArea, Label: "Description"},
			{Name: "icon", Type: FieldFile, Label: "Icon"},
		},
	},
}

// ByName looks a collection up by registry name.
func ByName(name string) (Collection, bool) {
	for _, c := range Collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}
