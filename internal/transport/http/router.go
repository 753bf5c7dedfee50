package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/handlers"
	"github.com/avrusin/storefront/internal/middleware/auth"
	"github.com/avrusin/storefront/internal/service/token"
)

type Deps struct {
	DB               *gorm.DB
	Auth             *auth.Middleware
	AuthHandler      *handlers.AuthHandler
	StaffHandler     *handlers.StaffHandler
	AdminHandler     *handlers.AdminHandler
	ProductHandler   *handlers.ProductHandler
	WorkspaceHandler *handlers.WorkspaceHandler
	CartHandler      *handlers.CartHandler
	OrderHandler     *handlers.OrderHandler
	SearchHandler    *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/signup", d.AuthHandler.Signup)
	v1.POST("/signin", d.AuthHandler.Signin)
	v1.POST("/signout", d.AuthHandler.Signout)

	v1.POST("/staff/signup", d.StaffHandler.Signup)
	v1.POST("/staff/signin", d.StaffHandler.Signin)

	v1.POST("/admin/signup", d.AdminHandler.Signup)
	v1.POST("/admin/signin", d.AdminHandler.Signin)

	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	me := v1.Group("/me", d.Auth.RequireRole(token.RoleUser))
	me.GET("", d.AuthHandler.Profile)
	me.PATCH("", d.AuthHandler.UpdateProfile)
	me.POST("/password", d.AuthHandler.ChangePassword)

	cart := v1.Group("/cart", d.Auth.RequireRole(token.RoleUser))
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PATCH("/:id", d.CartHandler.ChangeQuantity)
	cart.DELETE("/:id", d.CartHandler.RemoveItem)

	orders := v1.Group("/orders", d.Auth.RequireRole(token.RoleUser))
	orders.GET("", d.OrderHandler.ListMine)
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.POST("/verify-payment", d.OrderHandler.VerifyPayment)
	orders.GET("/:id/items", d.OrderHandler.OrderItems)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	// Catalog management and day-to-day moderation are open to approved
	// staff and admins alike.
	staff := v1.Group("/staff", d.Auth.RequireRole(token.RoleStaff, token.RoleAdmin))
	staff.GET("/me", d.StaffHandler.Profile)
	staff.POST("/me/password", d.StaffHandler.ChangePassword)
	staff.POST("/products", d.ProductHandler.CreateProduct)
	staff.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	staff.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	staff.DELETE("/products", d.ProductHandler.DeleteAllProducts)
	staff.GET("/workspaces", d.WorkspaceHandler.GetWorkspaces)
	staff.GET("/workspaces/:id", d.WorkspaceHandler.GetWorkspace)
	staff.POST("/workspaces", d.WorkspaceHandler.CreateWorkspace)
	staff.PATCH("/workspaces/:id", d.WorkspaceHandler.PatchWorkspace)
	staff.DELETE("/workspaces/:id", d.WorkspaceHandler.DeleteWorkspace)
	staff.DELETE("/workspaces", d.WorkspaceHandler.DeleteAllWorkspaces)
	staff.GET("/users", d.AdminHandler.ListUsers)
	staff.DELETE("/users/:id", d.AdminHandler.RemoveUser)
	staff.GET("/orders", d.AdminHandler.ListOrders)
	staff.GET("/orders/:id/items", d.AdminHandler.OrderItems)
	staff.POST("/orders/:id/status", d.AdminHandler.ChangeOrderStatus)
	staff.POST("/orders/:id/cancel", d.AdminHandler.CancelOrder)

	admin := v1.Group("/admin", d.Auth.RequireRole(token.RoleAdmin))
	admin.POST("/password", d.AdminHandler.ChangePassword)
	admin.GET("/staff", d.AdminHandler.ListStaff)
	admin.POST("/staff/:id/approve", d.AdminHandler.ApproveStaff)
	admin.POST("/staff/:id/reject", d.AdminHandler.RejectStaff)
	admin.DELETE("/staff/:id", d.AdminHandler.DeleteStaff)
	admin.GET("/users", d.AdminHandler.ListUsers)
	admin.DELETE("/users/:id", d.AdminHandler.RemoveUser)
	admin.DELETE("/users", d.AdminHandler.RemoveAllUsers)
	admin.GET("/orders", d.AdminHandler.ListOrders)
	admin.GET("/orders/:id/items", d.AdminHandler.OrderItems)
	admin.POST("/orders/:id/status", d.AdminHandler.ChangeOrderStatus)
	admin.POST("/orders/:id/cancel", d.AdminHandler.CancelOrder)
	admin.DELETE("/orders/cancelled", d.AdminHandler.PurgeCancelledOrders)
}
