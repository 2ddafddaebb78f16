package humanize

// rule is one AI-sounding phrase and its plainer replacement. Patterns are
// matched case-insensitively at word boundaries; an empty replacement
// deletes the phrase and tidies the surrounding whitespace.
type rule struct {
	pattern     string
	replacement string
}

// rules is the static table of tells that show up constantly in LLM drafts.
// Order matters: longer phrases come first so they win over their substrings.
var rules = []rule{
	{"it is important to note that", ""},
	{"it's important to note that", ""},
	{"it is worth noting that", ""},
	{"in today's fast-paced world", "today"},
	{"in today's digital age", "today"},
	{"in the ever-evolving landscape of", "in"},
	{"in the realm of", "in"},
	{"at the end of the day", "ultimately"},
	{"when it comes to", "for"},
	{"a testament to", "proof of"},
	{"delve into", "look at"},
	{"delves into", "looks at"},
	{"delving into", "looking at"},
	{"navigating the complexities of", "handling"},
	{"unlock the potential of", "get more from"},
	{"unlock the power of", "get more from"},
	{"embark on a journey", "start"},
	{"game-changer", "big improvement"},
	{"seamlessly integrate", "integrate"},
	{"seamlessly integrates", "integrates"},
	{"robust solution", "solution"},
	{"cutting-edge", "modern"},
	{"leveraging", "using"},
	{"leverages", "uses"},
	{"leverage", "use"},
	{"utilizing", "using"},
	{"utilizes", "uses"},
	{"utilize", "use"},
	{"furthermore,", "also,"},
	{"moreover,", "also,"},
	{"additionally,", "also,"},
	{"in conclusion,", ""},
	{"firstly,", "first,"},
	{"secondly,", "second,"},
	{"lastly,", "finally,"},
	{"crucial", "important"},
	{"pivotal", "key"},
	{"myriad of", "many"},
	{"plethora of", "lot of"},
	{"tapestry of", "mix of"},
	{"elevate your", "improve your"},
	{"supercharge", "boost"},
	{"revolutionize", "change"},
	{"comprehensive guide", "guide"},
	{"dive deep into", "dig into"},
	{"deep dive into", "close look at"},
	{"vibrant", "lively"},
	{"bustling", "busy"},
	{"whether you're a beginner or an expert", "at any level"},
	{"look no further", ""},
}
