package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type birthDateRequest struct {
	Day   string `json:"day"   validate:"required,len=2,number"    example:"09"`
	Month string `json:"month" validate:"required,len=2,number"    example:"12"`
	Year  string `json:"year"  validate:"required,len=4,number"    example:"1990"`
}

type createEmployeeRequest struct {
	Email     string           `json:"email"     validate:"required,email"                example:"ada@example.com"`
	Name      string           `json:"name"      validate:"required,notblank"             example:"Ada Lovelace"`
	Password  string           `json:"password"  validate:"required,min=3,password"       example:"Secret1"`
	BirthDate birthDateRequest `json:"birthdate" validate:"required"`
	Roles     []string         `json:"roles"     validate:"required,min=1,dive,notblank"  example:"developer,reviewer"`
}

type managerEmailRequest struct {
	Email string `json:"email" validate:"required,email" example:"boss@example.com"`
}

type birthDateResponse struct {
	Day   string `json:"day"   example:"09"`
	Month string `json:"month" example:"12"`
	Year  string `json:"year"  example:"1990"`
}

type employeeResponse struct {
	Email     string            `json:"email"     example:"ada@example.com"`
	Name      string            `json:"name"      example:"Ada Lovelace"`
	BirthDate birthDateResponse `json:"birthdate"`
	Roles     []string          `json:"roles"     example:"developer,reviewer"`
}

type paginationResponse struct {
	Total      int64 `json:"total"       example:"12"`
	Page       int   `json:"page"        example:"0"`
	Size       int   `json:"size"        example:"10"`
	TotalPages int   `json:"total_pages" example:"2"`
}

type employeePageResponse struct {
	Data       []employeeResponse `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}
