package core

func pageButtonClass(current, page int) string {
	if current == page {
		return "bg-blue-50 text-blue-700 border-b-2 border-blue-600 font-medium"
	}
	return "text-slate-600 hover:text-slate-900"
}

func isSelected(current, page int) string {
	if current == page {
		return "true"
	}
	return "false"
}
