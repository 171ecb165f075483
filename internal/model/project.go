package model

// ProjectRef is the project summary embedded in a task
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is a project with its manager and members
type Project struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Manager            *UserRef  `json:"manager,omitempty"`
	Members            []UserRef `json:"members,omitempty"`
	WebhookURL         string    `json:"webhookUrl,omitempty"`
	NotificationEvents []string  `json:"notificationEvents,omitempty"`
}

// Ref returns the summary form used inside tasks
func (p Project) Ref() ProjectRef {
	return ProjectRef{ID: p.ID, Name: p.Name}
}

// AllowedAssignees returns the manager and member emails, lower-cased and
// deduplicated. The manager comes first, then members in their given order.
func (p Project) AllowedAssignees() []string {
	seen := make(map[string]struct{}, len(p.Members)+1)
	var emails []string
	add := func(email string) {
		e := NormalizeEmail(email)
		if e == "" {
			return
		}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		emails = append(emails, e)
	}
	if p.Manager != nil {
		add(p.Manager.Email)
	}
	for _, m := range p.Members {
		add(m.Email)
	}
	return emails
}

// CanAssign reports whether email belongs to the project's manager or members
func (p Project) CanAssign(email string) bool {
	e := NormalizeEmail(email)
	for _, allowed := range p.AllowedAssignees() {
		if allowed == e {
			return true
		}
	}
	return false
}

// ProjectRequest is the body of POST /projects and PUT /projects/{id}
type ProjectRequest struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	ManagerID          string   `json:"managerId,omitempty"`
	MemberIDs          []string `json:"memberIds,omitempty"`
	WebhookURL         string   `json:"webhookUrl,omitempty"`
	NotificationEvents []string `json:"notificationEvents,omitempty"`
}

// Notification events a project webhook can subscribe to
var NotificationEvents = []string{
	"Task Created",
	"Task Completed",
	"Task Status Changed",
}
