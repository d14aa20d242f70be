// Package web provides the HTTP server for helloweb
package web

/*

	### **Core Files:**
	1. **`webserver_core_routes.go`** - WebServer setup, security headers, listen/serve/shutdown
	2. **`web_middleware.go`** - Request id, access log and panic recovery middleware
	3. **`web_banner.go`** - Launch banner printed to the terminal

	### **Page Handler Files:**
	4. **`web_homePage.go`** - Static route table ("/" and "/world") and its handlers

*/
