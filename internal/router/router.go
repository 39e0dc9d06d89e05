// Package router maps storefront paths to pages. It only parses the path;
// handlers decide what to fetch and render.
package router

import (
	"net/url"
	"strings"
)

type PageKind int

const (
	NotFound PageKind = iota
	Home
	Admin
	Category
	Product
)

func (k PageKind) String() string {
	switch k {
	case Home:
		return "home"
	case Admin:
		return "admin"
	case Category:
		return "category"
	case Product:
		return "product"
	default:
		return "notfound"
	}
}

// Route parameter names.
const (
	ParamCategoryID = "categoryId"
	ParamProductID  = "productId"
)

type Route struct {
	Page   PageKind
	Params map[string]string
}

// Param returns a route parameter or "".
func (r Route) Param(name string) string { return r.Params[name] }

// Resolve classifies path. A leading "#" and one trailing slash are
// tolerated, segments are percent-decoded, and anything that does not match
// exactly resolves to NotFound. Query strings are not parsed.
func Resolve(path string) Route {
	path = strings.TrimPrefix(path, "#")
	if path == "" || path == "/" {
		return Route{Page: Home}
	}
	if !strings.HasPrefix(path, "/") {
		return Route{Page: NotFound}
	}
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")

	raw := strings.Split(path, "/")
	segs := make([]string, len(raw))
	for i, s := range raw {
		dec, err := url.PathUnescape(s)
		if err != nil || dec == "" {
			return Route{Page: NotFound}
		}
		segs[i] = dec
	}

	switch {
	case len(segs) == 1 && segs[0] == "admin":
		return Route{Page: Admin}
	case len(segs) == 2 && segs[0] == "category":
		return Route{Page: Category, Params: map[string]string{ParamCategoryID: segs[1]}}
	case len(segs) == 3 && segs[0] == "product":
		return Route{Page: Product, Params: map[string]string{
			ParamCategoryID: segs[1],
			ParamProductID:  segs[2],
		}}
	}
	return Route{Page: NotFound}
}

// CategoryPath and ProductPath build links that Resolve maps back.
func CategoryPath(categoryID string) string {
	return "/category/" + url.PathEscape(categoryID)
}

func ProductPath(categoryID, productID string) string {
	return "/product/" + url.PathEscape(categoryID) + "/" + url.PathEscape(productID)
}
