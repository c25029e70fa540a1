package epub

// relators are the MARC relator codes seen in the wild on dc:creator and dc:contributor.
var relators = map[string]struct{}{
	"adp": {}, // adapter
	"ann": {}, // annotator
	"arr": {}, // arranger
	"art": {}, // artist
	"asn": {}, // associated name
	"aui": {}, // author of introduction
	"aut": {}, // author
	"bkp": {}, // book producer
	"clb": {}, // collaborator
	"cmm": {}, // commentator
	"com": {}, // compiler
	"cov": {}, // cover designer
	"ctb": {}, // contributor
	"dsr": {}, // designer
	"edt": {}, // editor
	"ill": {}, // illustrator
	"lyr": {}, // lyricist
	"mdc": {}, // metadata contact
	"mus": {}, // musician
	"nrt": {}, // narrator
	"oth": {}, // other
	"pbl": {}, // publisher
	"pht": {}, // photographer
	"prt": {}, // printer
	"red": {}, // redactor
	"rev": {}, // reviewer
	"spn": {}, // sponsor
	"ths": {}, // thesis advisor
	"trc": {}, // transcriber
	"trl": {}, // translator
}

// IsKnownRelator reports whether role is a recognized MARC relator code.
func IsKnownRelator(role string) bool {
	_, ok := relators[role]
	return ok
}
