package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/core/user"
	appfs "github.com/edulane/lms/fs"
)

const portalTemplatesDir = "templates/portal"

type (
	navLink struct {
		Href  string
		Label string
	}

	// page is the data every portal template is rendered with.
	page struct {
		Title   string
		AppName string
		Role    string
		Name    string
		Nav     []navLink
		Data    interface{}
	}

	// portalRenderer renders the portal pages, each within the common layout.
	portalRenderer struct {
		pages map[string]*template.Template
	}
)

var portalNav = map[string][]navLink{
	user.RoleAdmin: {
		{Href: "/admin/dashboard", Label: "Dashboard"},
		{Href: "/admin/users", Label: "Users"},
	},
	user.RoleFaculty: {
		{Href: "/faculty/dashboard", Label: "Dashboard"},
		{Href: "/faculty/my-courses", Label: "My courses"},
		{Href: "/faculty/create-course", Label: "Create course"},
		{Href: "/faculty/students", Label: "Students"},
	},
	user.RoleStudent: {
		{Href: "/student/dashboard", Label: "Dashboard"},
		{Href: "/student/courses", Label: "Courses"},
	},
}

func newPortalRenderer(fsys fs.FS) (*portalRenderer, error) {
	layout := path.Join(portalTemplatesDir, "_layout.gohtml")
	files, err := fs.Glob(fsys, path.Join(portalTemplatesDir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing portal templates")
	}

	r := &portalRenderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layout {
			continue
		}
		t, err := template.ParseFS(fsys, layout, file)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", file)
		}
		name := path.Base(file)
		r.pages[name[:len(name)-len(path.Ext(name))]] = t
	}
	return r, nil
}

func (r *portalRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown portal page %q", name)
	}
	return t.ExecuteTemplate(w, "_layout.gohtml", data)
}

type portal struct {
	appName string
	auth    *authenticator
}

func registerPortal(app *echo.Echo, p *portal) {
	static, err := fs.Sub(appfs.FS, "static")
	if err != nil {
		panic(err) // embedded
	}
	app.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	app.GET("/", p.page("home", "Home"))
	app.GET("/login", p.page("login", "Sign in"), p.auth.loginGate)

	ag := app.Group("/"+user.RoleAdmin, p.auth.portalGate(user.RoleAdmin))
	ag.GET("", redirectTo(dashboardPath(user.RoleAdmin)))
	ag.GET("/dashboard", p.page("admin_dashboard", "Dashboard"))
	ag.GET("/users", p.page("admin_users", "Users"))

	fg := app.Group("/"+user.RoleFaculty, p.auth.portalGate(user.RoleFaculty))
	fg.GET("", redirectTo(dashboardPath(user.RoleFaculty)))
	fg.GET("/dashboard", p.page("faculty_dashboard", "Dashboard"))
	fg.GET("/my-courses", p.page("faculty_my_courses", "My courses"))
	fg.GET("/create-course", p.page("faculty_create_course", "Create course"))
	fg.GET("/students", p.page("faculty_students", "Students"))

	sg := app.Group("/"+user.RoleStudent, p.auth.portalGate(user.RoleStudent))
	sg.GET("", redirectTo(dashboardPath(user.RoleStudent)))
	sg.GET("/dashboard", p.page("student_dashboard", "Dashboard"))
	sg.GET("/courses", p.page("student_courses", "Courses"))
	sg.GET("/courses/:id", p.coursePage)
}

func (p *portal) newPage(ctx echo.Context, title string, data interface{}) page {
	pg := page{Title: title, AppName: p.appName, Data: data}
	if claims, err := getContextClaims(ctx); err == nil {
		pg.Role = claims.Role
		pg.Name = claims.Name
		pg.Nav = portalNav[claims.Role]
	}
	return pg
}

func (p *portal) page(name, title string) echo.HandlerFunc {
	var data interface{}
	if name == "faculty_create_course" {
		data = struct{ MaxSections, MaxTopics int }{course.MaxSections, course.MaxTopicsPerSection}
	}
	return func(ctx echo.Context) error {
		return ctx.Render(http.StatusOK, name, p.newPage(ctx, title, data))
	}
}

func (p *portal) coursePage(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		return errHttpNotFound
	}
	return ctx.Render(http.StatusOK, "student_course", p.newPage(ctx, "Course", struct{ CourseID int }{id}))
}

func redirectTo(url string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusFound, url)
	}
}
