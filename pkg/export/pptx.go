package export

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Options controls the lossy Markdown to slide conversion.
type Options struct {
	SlideLevel int
	BulletCap  int
	CharBudget int
}

func (o Options) withDefaults() Options {
	if o.SlideLevel <= 0 {
		o.SlideLevel = 2
	}
	if o.BulletCap <= 0 {
		o.BulletCap = 6
	}
	if o.CharBudget <= 0 {
		o.CharBudget = 900
	}
	return o
}

type Slide struct {
	Title   string
	Bullets []string
}

// Deck is the slide outline derived from a report.
type Deck struct {
	Title    string
	Subtitle string
	Slides   []Slide
}

// BuildDeck turns markdown into a title slide plus one slide per section.
// Each slide keeps at most BulletCap lines and CharBudget runes of text.
func BuildDeck(markdown string, opts Options) Deck {
	opts = opts.withDefaults()
	nodes := Parse(markdown)
	preamble, sections := Sections(nodes, opts.SlideLevel)

	deck := Deck{Title: Plain(Title(nodes, opts.SlideLevel, "Report"))}
	var intro []string
	for _, n := range preamble {
		if n.Kind != KindHeading {
			intro = append(intro, Plain(n.Line()))
		}
	}
	if len(sections) > 0 && len(intro) > 0 {
		deck.Subtitle = truncateRunes(intro[0], opts.CharBudget/3)
	}

	if len(sections) == 0 && len(intro) > 0 {
		deck.Slides = append(deck.Slides, Slide{Title: deck.Title, Bullets: fit(intro, opts)})
	}
	for _, s := range sections {
		lines := make([]string, 0, len(s.Nodes))
		for _, n := range s.Nodes {
			lines = append(lines, Plain(n.Line()))
		}
		deck.Slides = append(deck.Slides, Slide{Title: Plain(s.Title), Bullets: fit(lines, opts)})
	}
	return deck
}

// fit keeps the first BulletCap lines and cuts the text hard at
// CharBudget runes.
func fit(lines []string, opts Options) []string {
	if len(lines) > opts.BulletCap {
		lines = lines[:opts.BulletCap]
	}
	out := make([]string, 0, len(lines))
	remaining := opts.CharBudget
	for _, l := range lines {
		if remaining <= 0 {
			break
		}
		n := utf8.RuneCountInString(l)
		if n > remaining {
			l = truncateRunes(l, remaining)
			n = remaining
		}
		out = append(out, l)
		remaining -= n
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// PPTX renders markdown as a slide deck.
func PPTX(markdown string, opts Options) ([]byte, error) {
	return BuildDeck(markdown, opts).PPTX()
}

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"

	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"

	slideWidth  = 12192000
	slideHeight = 6858000
	margin      = 609600
)

func (d Deck) PPTX() ([]byte, error) {
	slides := []string{d.titleSlide()}
	for _, s := range d.Slides {
		slides = append(slides, contentSlide(s))
	}

	parts := []part{
		{"[Content_Types].xml", pptxContentTypes(len(slides))},
		{"_rels/.rels", xmlHeader + `<Relationships xmlns="` + nsRel + `">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
			`</Relationships>`},
		{"ppt/presentation.xml", pptxPresentation(len(slides))},
		{"ppt/_rels/presentation.xml.rels", pptxPresentationRels(len(slides))},
		{"ppt/slideMasters/slideMaster1.xml", pptxSlideMaster},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", xmlHeader + `<Relationships xmlns="` + nsRel + `">` +
			`<Relationship Id="rId1" Type="` + relSlideLayout + `" Target="../slideLayouts/slideLayout1.xml"/>` +
			`<Relationship Id="rId2" Type="` + relTheme + `" Target="../theme/theme1.xml"/>` +
			`</Relationships>`},
		{"ppt/slideLayouts/slideLayout1.xml", pptxSlideLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", xmlHeader + `<Relationships xmlns="` + nsRel + `">` +
			`<Relationship Id="rId1" Type="` + relSlideMaster + `" Target="../slideMasters/slideMaster1.xml"/>` +
			`</Relationships>`},
		{"ppt/theme/theme1.xml", pptxTheme},
	}
	slideRels := xmlHeader + `<Relationships xmlns="` + nsRel + `">` +
		`<Relationship Id="rId1" Type="` + relSlideLayout + `" Target="../slideLayouts/slideLayout1.xml"/>` +
		`</Relationships>`
	for i, s := range slides {
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), s},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), slideRels},
		)
	}
	return writeZip(parts)
}

func (d Deck) titleSlide() string {
	var sb strings.Builder
	textBox(&sb, 2, "Title", margin, slideHeight/3, slideWidth-2*margin, 1371600,
		[]string{d.Title}, 4000, true, false)
	if d.Subtitle != "" {
		textBox(&sb, 3, "Subtitle", margin, slideHeight/3+1524000, slideWidth-2*margin, 1143000,
			[]string{d.Subtitle}, 2000, false, false)
	}
	return slideXML(sb.String())
}

func contentSlide(s Slide) string {
	var sb strings.Builder
	textBox(&sb, 2, "Title", margin, 457200, slideWidth-2*margin, 1005840,
		[]string{s.Title}, 3200, true, false)
	if len(s.Bullets) > 0 {
		textBox(&sb, 3, "Content", margin, 1600200, slideWidth-2*margin, slideHeight-1600200-457200,
			s.Bullets, 1800, false, true)
	}
	return slideXML(sb.String())
}

func slideXML(shapes string) string {
	return xmlHeader + `<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:spTree>` + emptyGroup + shapes + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

const emptyGroup = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

func textBox(sb *strings.Builder, id int, name string, x, y, cx, cy int, lines []string, size int, bold, bullets bool) {
	fmt.Fprintf(sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name)
	fmt.Fprintf(sb, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`, x, y, cx, cy)
	sb.WriteString(`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>`)
	b := ""
	if bold {
		b = ` b="1"`
	}
	for _, line := range lines {
		sb.WriteString("<a:p>")
		if bullets {
			sb.WriteString(`<a:pPr marL="342900" indent="-342900"><a:buFont typeface="Arial"/><a:buChar char="•"/></a:pPr>`)
		}
		fmt.Fprintf(sb, `<a:r><a:rPr lang="en-US" sz="%d"%s dirty="0"/><a:t>%s</a:t></a:r>`, size, b, esc(line))
		sb.WriteString("</a:p>")
	}
	sb.WriteString(`</p:txBody></p:sp>`)
}

func pptxContentTypes(slides int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	sb.WriteString(`</Types>`)
	return sb.String()
}

func pptxPresentation(slides int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader + `<p:presentation xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" saveSubsetFonts="1">`)
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>`)
	for i := 0; i < slides; i++ {
		fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+3)
	}
	fmt.Fprintf(&sb, `</p:sldIdLst><p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`, slideWidth, slideHeight)
	return sb.String()
}

func pptxPresentationRels(slides int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader + `<Relationships xmlns="` + nsRel + `">`)
	sb.WriteString(`<Relationship Id="rId1" Type="` + relSlideMaster + `" Target="slideMasters/slideMaster1.xml"/>`)
	sb.WriteString(`<Relationship Id="rId2" Type="` + relTheme + `" Target="theme/theme1.xml"/>`)
	for i := 0; i < slides; i++ {
		fmt.Fprintf(&sb, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, i+3, relSlide, i+1)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

const pptxSlideMaster = xmlHeader + `<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`<p:txStyles><p:titleStyle><a:lvl1pPr><a:defRPr sz="3200"/></a:lvl1pPr></p:titleStyle>` +
	`<p:bodyStyle><a:lvl1pPr><a:defRPr sz="1800"/></a:lvl1pPr></p:bodyStyle>` +
	`<p:otherStyle><a:lvl1pPr><a:defRPr sz="1800"/></a:lvl1pPr></p:otherStyle></p:txStyles>` +
	`</p:sldMaster>`

const pptxSlideLayout = xmlHeader + `<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" type="blank" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const pptxTheme = xmlHeader + `<a:theme xmlns:a="` + nsA + `" name="Sensight"><a:themeElements>` +
	`<a:clrScheme name="Sensight">` +
	`<a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F3864"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4A90E2"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Sensight">` +
	`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface="Microsoft YaHei"/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface="Microsoft YaHei"/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Sensight">` +
	`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`
