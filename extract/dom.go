package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/arrester/endabyss/model"
)

// htmlFinding is the raw output of walking one HTML document, before the
// caller assigns depth/target and turns URLs into Tasks/Endpoints.
type htmlFinding struct {
	anchors       []string // a[href], link[href] -> HTML_A
	attrs         []string // script[src], img[src], iframe[src], meta refresh, data-url/href -> HTML_ATTR
	forms         []model.Form
	formParams    []model.ParameterSet
	inlineScripts []string // bodies of <script> without [src], recursed via scanJS
}

var refreshContentRe = regexp.MustCompile(`(?i)url\s*=\s*(\S+)`)

// parseHTML walks body as HTML and harvests every endpoint-bearing
// attribute the spec names.
func parseHTML(body []byte, base *url.URL) (htmlFinding, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return htmlFinding{}, err
	}

	var out htmlFinding
	seenAnchor := make(map[string]bool)
	seenAttr := make(map[string]bool)

	addAnchor := func(raw string) {
		resolved := resolveHref(raw, base)
		if resolved != "" && !seenAnchor[resolved] {
			seenAnchor[resolved] = true
			out.anchors = append(out.anchors, resolved)
		}
	}
	addAttr := func(raw string) {
		resolved := resolveHref(raw, base)
		if resolved != "" && !seenAttr[resolved] {
			seenAttr[resolved] = true
			out.attrs = append(out.attrs, resolved)
		}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			addAnchor(href)
		}
	})
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			addAnchor(href)
		}
	})
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addAttr(src)
		}
	})
	doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out.inlineScripts = append(out.inlineScripts, text)
		}
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addAttr(src)
		}
	})
	doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			addAttr(src)
		}
	})
	doc.Find("[data-url]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data-url"); ok {
			addAttr(v)
		}
	})
	doc.Find("[data-href]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("data-href"); ok {
			addAttr(v)
		}
	})
	doc.Find(`meta[http-equiv]`).Each(func(_ int, s *goquery.Selection) {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		if m := refreshContentRe.FindStringSubmatch(content); len(m) > 1 {
			addAttr(strings.Trim(m[1], `"'`))
		}
	})

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		method := strings.ToUpper(s.AttrOr("method", "GET"))
		actionURL := resolveHref(action, base)
		if actionURL == "" && base != nil {
			actionURL = base.String()
		}

		var fields []model.Field
		params := make(map[string]string)
		s.Find("input[name], select[name], textarea[name]").Each(func(_ int, in *goquery.Selection) {
			name, ok := in.Attr("name")
			if !ok || name == "" {
				return
			}
			inputType := in.AttrOr("type", "text")
			defVal := in.AttrOr("value", "")
			fields = append(fields, model.Field{Name: name, DefaultValue: defVal, InputType: inputType})
			params[name] = defVal
		})

		if actionURL != "" {
			out.forms = append(out.forms, model.Form{ActionURL: actionURL, Method: method, Fields: fields})
			if len(params) > 0 {
				out.formParams = append(out.formParams, model.ParameterSet{
					URL:        actionURL,
					Method:     method,
					Parameters: params,
					Source:     model.ParamForm,
				})
			}
		}
	})

	return out, nil
}

func resolveHref(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return ""
	}
	return resolveAgainst(raw, base)
}
