package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"internship-portal/internal/core/report"
	"internship-portal/internal/domain"
)

const dateLayout = "2006-01-02 15:04"

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func usersTable(users []domain.User) report.Table {
	t := report.Table{
		Title:   "Users",
		Headers: []string{"ID", "First Name", "Last Name", "Email", "Roles", "Approved", "Created"},
	}
	for _, u := range users {
		roles := make([]string, 0, len(u.Roles))
		for _, r := range u.RoleList() {
			roles = append(roles, string(r))
		}
		t.Rows = append(t.Rows, []string{
			u.ID, u.FirstName, u.LastName, u.Email,
			strings.Join(roles, ", "), yesNo(u.IsApproved), fmtTime(u.CreatedAt),
		})
	}
	return t
}

func postsTable(posts []domain.InternshipPost) report.Table {
	t := report.Table{
		Title:   "Internship Posts",
		Headers: []string{"ID", "Title", "Company", "City", "Work Type", "Active", "Created", "Applications"},
	}
	for _, p := range posts {
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(uint64(p.ID), 10), p.Title, p.CompanyName(), p.City, p.WorkType,
			yesNo(p.IsActive), fmtTime(p.CreatedDate), strconv.Itoa(len(p.Applications)),
		})
	}
	return t
}

// applicationsTable post 非空时为单个岗位的投递列表
func applicationsTable(title string, apps []domain.Application, post *domain.InternshipPost) report.Table {
	t := report.Table{
		Title:   title,
		Headers: []string{"ID", "Post", "Company", "Intern", "Email", "University", "Applied", "Status"},
	}
	for _, a := range apps {
		p := a.InternshipPost
		if p == nil {
			p = post
		}
		var postTitle, company string
		if p != nil {
			postTitle, company = p.Title, p.CompanyName()
		}
		var name, email, uni string
		if ip := a.InternProfile; ip != nil {
			uni = ip.University
			if ip.User != nil {
				name, email = ip.User.FullName(), ip.User.Email
			}
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatUint(uint64(a.ID), 10), postTitle, company, name, email, uni,
			fmtTime(a.AppliedAt), string(a.Status),
		})
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ExportPostApplications 雇主导出本人岗位的投递
func (s *PostingService) ExportPostApplications(ctx context.Context, uid string, postID uint, f report.Format) (*report.File, error) {
	p, apps, err := s.PostApplications(ctx, uid, postID)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Applications - %s", p.Title)
	return report.Render(applicationsTable(title, apps, p), f, fmt.Sprintf("post_%d_applications", p.ID), s.now())
}
