package catalog

// Resource keys of the exportable entities.
const (
	Perfumes  = "perfumes"
	Notes     = "notes"
	Perfumers = "perfumers"
	Brands    = "brands"
)

var (
	genders        = []string{"male", "female", "unisex"}
	concentrations = []string{"EDC", "EDT", "EDP", "Parfum", "Extrait"}
)

func idColumn() Column {
	return Column{Header: "ID", Field: "_id", Generated: true}
}

func createdColumn() Column {
	return Column{Header: "Created At", Field: "createdAt", Kind: KindDate, Generated: true}
}

func noteRefColumn(header, field string) Column {
	return Column{Header: header, Field: field, Kind: KindComplex, Keys: []string{"noteId"}}
}

func init() {
	Register(Resource{
		Key: Perfumes, Label: "Perfumes", Singular: "Perfume", Group: "Catalog",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Rules: "required,max=150", Listed: true},
			{Name: "brand", Label: "Brand", Rules: "required,max=120", Listed: true},
			{Name: "perfumer", Label: "Perfumer", Rules: "omitempty,max=120", Listed: true},
			{Name: "year", Label: "Year", Type: FieldNumber, Rules: "omitempty,numeric,len=4", Listed: true},
			{Name: "gender", Label: "Gender", Type: FieldSelect, Options: genders, Rules: "omitempty,oneof=male female unisex"},
			{Name: "concentration", Label: "Concentration", Type: FieldSelect, Options: concentrations, Rules: "omitempty,oneof=EDC EDT EDP Parfum Extrait"},
			{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=5000"},
			{Name: "image", Label: "Image URL", Type: FieldURL, Rules: "omitempty,url"},
			{Name: "topNotes", Label: "Top notes", Type: FieldComplex, Rules: "omitempty,complexlist", Hint: `{"noteId":"..."}|{"noteId":"..."}`},
			{Name: "middleNotes", Label: "Middle notes", Type: FieldComplex, Rules: "omitempty,complexlist"},
			{Name: "baseNotes", Label: "Base notes", Type: FieldComplex, Rules: "omitempty,complexlist"},
			{Name: "accords", Label: "Accords", Type: FieldComplex, Rules: "omitempty,complexlist", Hint: `{"name":"woody","width":80,"backgroundColor":"#7a5230"}`},
		},
		Columns: []Column{
			idColumn(),
			{Header: "Name", Field: "name", Required: true},
			{Header: "Brand", Field: "brand"},
			{Header: "Perfumer", Field: "perfumer"},
			{Header: "Year", Field: "year", Kind: KindNumber},
			{Header: "Gender", Field: "gender"},
			{Header: "Concentration", Field: "concentration"},
			{Header: "Description", Field: "description"},
			{Header: "Image URL", Field: "image"},
			noteRefColumn("Top Notes", "topNotes"),
			noteRefColumn("Middle Notes", "middleNotes"),
			noteRefColumn("Base Notes", "baseNotes"),
			{Header: "Accords", Field: "accords", Kind: KindComplex, Keys: []string{"name", "width", "backgroundColor"}},
			createdColumn(),
		},
	})

	Register(Resource{
		Key: Notes, Label: "Notes", Singular: "Note", Group: "Catalog",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Rules: "required,max=100", Listed: true},
			{Name: "group", Label: "Olfactive group", Rules: "omitempty,max=60", Listed: true},
			{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=2000"},
			{Name: "image", Label: "Image URL", Type: FieldURL, Rules: "omitempty,url"},
		},
		Columns: []Column{
			idColumn(),
			{Header: "Name", Field: "name", Required: true},
			{Header: "Group", Field: "group"},
			{Header: "Description", Field: "description"},
			{Header: "Image URL", Field: "image"},
			createdColumn(),
		},
	})

	Register(Resource{
		Key: Perfumers, Label: "Perfumers", Singular: "Perfumer", Group: "Catalog",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Rules: "required,max=120", Listed: true},
			{Name: "country", Label: "Country", Rules: "omitempty,max=80", Listed: true},
			{Name: "bio", Label: "Biography", Type: FieldTextarea, Rules: "omitempty,max=5000"},
			{Name: "image", Label: "Photo URL", Type: FieldURL, Rules: "omitempty,url"},
		},
		Columns: []Column{
			idColumn(),
			{Header: "Name", Field: "name", Required: true},
			{Header: "Country", Field: "country"},
			{Header: "Biography", Field: "bio"},
			{Header: "Photo URL", Field: "image"},
			createdColumn(),
		},
	})

	Register(Resource{
		Key: Brands, Label: "Brands", Singular: "Brand", Group: "Catalog",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Rules: "required,max=120", Listed: true},
			{Name: "country", Label: "Country", Rules: "omitempty,max=80", Listed: true},
			{Name: "website", Label: "Website", Type: FieldURL, Rules: "omitempty,url", Listed: true},
			{Name: "logo", Label: "Logo URL", Type: FieldURL, Rules: "omitempty,url"},
			{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=5000"},
		},
		Columns: []Column{
			idColumn(),
			{Header: "Name", Field: "name", Required: true},
			{Header: "Country", Field: "country"},
			{Header: "Website", Field: "website"},
			{Header: "Logo URL", Field: "logo"},
			{Header: "Description", Field: "description"},
			createdColumn(),
		},
	})

	Register(Resource{
		Key: "users", Label: "Users", Singular: "User", Group: "Community",
		Fields: []FieldSpec{
			{Name: "email", Label: "Email", Type: FieldEmail, Rules: "required,email", Listed: true},
			{Name: "username", Label: "Username", Rules: "required,min=3,max=40", Listed: true},
			{Name: "role", Label: "Role", Type: FieldSelect, Options: []string{"user", "editor", "admin"}, Rules: "required,oneof=user editor admin", Listed: true},
			{Name: "banned", Label: "Banned", Type: FieldBool, Listed: true},
		},
	})

	Register(Resource{
		Key: "reviews", Label: "Reviews", Singular: "Review", Group: "Community",
		Fields: []FieldSpec{
			{Name: "perfumeId", Label: "Perfume ID", Rules: "required", Listed: true},
			{Name: "userId", Label: "User ID", Rules: "required", Listed: true},
			{Name: "rating", Label: "Rating", Type: FieldNumber, Rules: "required,oneof=1 2 3 4 5", Listed: true},
			{Name: "content", Label: "Review", Type: FieldTextarea, Rules: "omitempty,max=4000"},
			{Name: "approved", Label: "Approved", Type: FieldBool, Listed: true},
		},
	})

	Register(Resource{
		Key: "feedback", Label: "Feedback", Singular: "Feedback", Group: "Community",
		Fields: []FieldSpec{
			{Name: "email", Label: "Email", Type: FieldEmail, Rules: "omitempty,email", Listed: true},
			{Name: "subject", Label: "Subject", Rules: "required,max=200", Listed: true},
			{Name: "message", Label: "Message", Type: FieldTextarea, Rules: "required,max=5000"},
			{Name: "status", Label: "Status", Type: FieldSelect, Options: []string{"open", "resolved"}, Rules: "required,oneof=open resolved", Listed: true},
		},
	})

	Register(Resource{
		Key: "articles", Label: "Articles", Singular: "Article", Group: "Content",
		Fields: []FieldSpec{
			{Name: "title", Label: "Title", Rules: "required,max=200", Listed: true},
			{Name: "slug", Label: "Slug", Rules: "required,max=200,lowercase", Listed: true},
			{Name: "author", Label: "Author", Rules: "omitempty,max=120", Listed: true},
			{Name: "coverImage", Label: "Cover image URL", Type: FieldURL, Rules: "omitempty,url"},
			{Name: "content", Label: "Content", Type: FieldTextarea, Rules: "required"},
			{Name: "published", Label: "Published", Type: FieldBool, Listed: true},
		},
	})

	Register(Resource{
		Key: "quizzes", Label: "Quizzes", Singular: "Quiz", Group: "Content",
		Fields: []FieldSpec{
			{Name: "title", Label: "Title", Rules: "required,max=200", Listed: true},
			{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=2000"},
			{Name: "difficulty", Label: "Difficulty", Type: FieldSelect, Options: []string{"easy", "medium", "hard"}, Rules: "required,oneof=easy medium hard", Listed: true},
			{Name: "questions", Label: "Questions", Type: FieldComplex, Rules: "omitempty,complexlist", Hint: `{"question":"...","answers":["a","b"],"correct":0}`},
			{Name: "published", Label: "Published", Type: FieldBool, Listed: true},
		},
	})

	Register(Resource{
		Key: "faqs", Label: "FAQs", Singular: "FAQ", Group: "Content",
		Fields: []FieldSpec{
			{Name: "question", Label: "Question", Rules: "required,max=300", Listed: true},
			{Name: "answer", Label: "Answer", Type: FieldTextarea, Rules: "required,max=5000"},
			{Name: "order", Label: "Order", Type: FieldNumber, Rules: "omitempty,numeric", Listed: true},
		},
	})

	Register(Resource{
		Key: "badges", Label: "Badges", Singular: "Badge", Group: "Gamification",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Rules: "required,max=80", Listed: true},
			{Name: "description", Label: "Description", Type: FieldTextarea, Rules: "omitempty,max=500"},
			{Name: "icon", Label: "Icon URL", Type: FieldURL, Rules: "omitempty,url"},
			{Name: "threshold", Label: "Threshold", Type: FieldNumber, Rules: "required,numeric", Listed: true},
		},
	})

	Register(Resource{
		Key: "ranks", Label: "Ranks", Singular: "Rank", Group: "Gamification",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Rules: "required,max=80", Listed: true},
			{Name: "minPoints", Label: "Minimum points", Type: FieldNumber, Rules: "required,numeric", Listed: true},
			{Name: "color", Label: "Color", Rules: "omitempty,hexcolor", Listed: true},
		},
	})
}
